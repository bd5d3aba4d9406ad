package merger

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/passkeyradar/radar/pkg/combiner"
	"github.com/passkeyradar/radar/pkg/constants"
	"github.com/passkeyradar/radar/pkg/errors"
	"github.com/passkeyradar/radar/pkg/logging"
	"github.com/passkeyradar/radar/pkg/normalize"
	"github.com/passkeyradar/radar/pkg/snapshot"
)

const testID = snapshot.ID("2024-03-01-12-00-00")

// fixture builds a combined artifact from raw JSON records.
type fixture struct {
	artifact *combiner.Artifact
}

func newFixture() *fixture {
	return &fixture{artifact: combiner.NewArtifact(testID, constants.Categories...)}
}

func (f *fixture) dir(subtype string, records ...string) *fixture {
	return f.add(constants.CategoryDirectories, subtype, records...)
}

func (f *fixture) wellknown(subtype string, records ...string) *fixture {
	return f.add(constants.CategoryWellknown, subtype, records...)
}

func (f *fixture) add(category, subtype string, records ...string) *fixture {
	recs := make([]snapshot.Record, 0, len(records))
	for _, r := range records {
		recs = append(recs, snapshot.MustRecord(r))
	}
	f.artifact.Set(category, subtype, testID, recs)
	return f
}

func newTestMerger(t *testing.T, opts ...Option) *Merger {
	t.Helper()
	nop := logging.NewNopLogger()
	m, err := New(normalize.New(nil), append([]Option{WithLogger(nop)}, opts...)...)
	require.NoError(t, err)
	return m
}

func mustMerge(t *testing.T, m *Merger, f *fixture) *Result {
	t.Helper()
	res, err := m.Merge(context.Background(), f.artifact)
	require.NoError(t, err)
	require.NotNil(t, res)
	return res
}

func TestMerge_EqualNamesProduceNoConflict(t *testing.T) {
	f := newFixture().
		dir("passkeys.directory", `{"domain":"example.com","name":"Example Co","passkey_signin":true}`).
		dir("passkeys.2fa.directory", `{"domain":"example.com","name":"ExampleCo","passwordless":"allowed"}`)

	res := mustMerge(t, newTestMerger(t), f)

	require.Len(t, res.Entities, 1)
	e := res.Entities[0]
	assert.Equal(t, "Example Co", *e.Name)
	assert.Equal(t, "example.com", *e.Domain)
	assert.Empty(t, e.Alt)
	assert.Empty(t, res.Conflicts)
	assert.True(t, *e.Signin)
	require.NotNil(t, e.MFA)
	assert.False(t, *e.MFA)
	assert.Len(t, e.Directories["passkeys.directory"], 1)
	assert.Len(t, e.Directories["passkeys.2fa.directory"], 1)
}

func TestMerge_SigninDisagreementIsLoggedAndOverwritten(t *testing.T) {
	f := newFixture().
		dir("passkeys.directory", `{"domain":"example.com","name":"Example","passkey_signin":true}`).
		dir("passkeys.2fa.directory", `{"domain":"www.example.com","name":"Example","passwordless":"no","mfa":"required"}`)

	res := mustMerge(t, newTestMerger(t), f)

	require.Len(t, res.Entities, 1)
	e := res.Entities[0]
	assert.False(t, *e.Signin)
	assert.True(t, *e.MFA)

	require.Len(t, res.Conflicts, 1)
	c := res.Conflicts[0]
	assert.Equal(t, "signin mismatch", c.Reason)
	require.NotNil(t, c.Entity.Signin)
	assert.True(t, *c.Entity.Signin, "conflict holds the state before the overwrite")
	assert.Nil(t, c.Entity.MFA)
	assert.Len(t, c.Entity.Directories["passkeys.2fa.directory"], 1, "evidence is attached before fields are compared")
}

func TestMerge_WellknownCreatesNamelessEntity(t *testing.T) {
	rec := `{"origin":"sub.example.org","webauthn":{"origins":["https://example.org"]}}`
	f := newFixture().
		dir("passkeys.directory", `{"domain":"other.com","name":"Other","passkey_mfa":true}`).
		wellknown("webauthn", rec)

	res := mustMerge(t, newTestMerger(t), f)

	require.Len(t, res.Entities, 2)
	e := res.Entities[1]
	assert.Nil(t, e.Name)
	require.NotNil(t, e.Domain)
	assert.Equal(t, "example.org", *e.Domain)
	assert.Nil(t, e.Signin)
	assert.Nil(t, e.MFA)
	assert.Empty(t, e.Directories)
	require.Len(t, e.Wellknown["webauthn"], 1)
	assert.True(t, e.Wellknown["webauthn"][0].Equal(snapshot.MustRecord(rec)))
}

func TestMerge_LaterSourceWinsNameConflict(t *testing.T) {
	f := newFixture().
		dir("passkeys.io", `{"domain":"acme.com","name":"Acme","url":"https://acme.com/login"}`).
		dir("passkeys.2stable.com", `{"domain":"acme.com","name":"Roadrunner Supplies"}`)

	res := mustMerge(t, newTestMerger(t), f)

	require.Len(t, res.Entities, 1)
	e := res.Entities[0]
	assert.Equal(t, "Roadrunner Supplies", *e.Name)
	assert.Equal(t, []string{"Acme"}, e.Alt)
	require.Len(t, res.Conflicts, 1)
	assert.Equal(t, "name mismatch", res.Conflicts[0].Reason)
	assert.Equal(t, "Acme", *res.Conflicts[0].Entity.Name)
}

func TestMerge_KeepFirstPolicy(t *testing.T) {
	f := newFixture().
		dir("passkeys.io", `{"domain":"acme.com","name":"Acme","url":"https://acme.com/login"}`).
		dir("passkeys.2stable.com", `{"domain":"acme.com","name":"Roadrunner Supplies"}`).
		dir("enpass.io", `{"domain":"acme.com","name":"Acme","usage_type":["mfa"]}`)

	m := newTestMerger(t, WithConflictPolicy(PolicyKeepFirst))
	assert.Equal(t, PolicyKeepFirst, m.Policy())
	res := mustMerge(t, m, f)

	require.Len(t, res.Entities, 1)
	e := res.Entities[0]
	assert.Equal(t, "Acme", *e.Name)
	assert.Equal(t, []string{"Roadrunner Supplies"}, e.Alt)
	assert.False(t, *e.Signin)
	assert.True(t, *e.MFA)
	require.Len(t, res.Conflicts, 1)
	assert.Equal(t, "name mismatch", res.Conflicts[0].Reason)
}

func TestMerge_FirstSourceReconcilesItsOwnDuplicates(t *testing.T) {
	f := newFixture().
		dir("passkeys.directory",
			`{"domain":"acme.com","name":"Acme","passkey_signin":true}`,
			`{"domain":"www.acme.com","name":"Acme","passkey_signin":false,"passkey_mfa":true}`)

	res := mustMerge(t, newTestMerger(t), f)

	require.Len(t, res.Entities, 1)
	e := res.Entities[0]
	assert.Len(t, e.Directories["passkeys.directory"], 2)
	assert.False(t, *e.Signin)
	require.NotNil(t, e.MFA)
	assert.True(t, *e.MFA)

	require.Len(t, res.Conflicts, 1)
	assert.Equal(t, "signin mismatch", res.Conflicts[0].Reason)
	assert.True(t, *res.Conflicts[0].Entity.Signin)
}

func TestMerge_DomainMismatch(t *testing.T) {
	newAcme := func() *fixture {
		return newFixture().
			dir("passkeys.io", `{"domain":"acme.com","name":"Acme","url":"https://acme.com"}`).
			dir("passkeys.2stable.com", `{"domain":"shop.roadrunner.io","name":"Acme"}`)
	}

	tests := []struct {
		name   string
		policy ConflictPolicy
		want   string
	}{
		{"overwrite takes the later domain", PolicyOverwrite, "roadrunner.io"},
		{"keep-first holds the earlier domain", PolicyKeepFirst, "acme.com"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := mustMerge(t, newTestMerger(t, WithConflictPolicy(tt.policy)), newAcme())

			require.Len(t, res.Entities, 1)
			e := res.Entities[0]
			assert.Equal(t, tt.want, *e.Domain)
			assert.Equal(t, "Acme", *e.Name)
			assert.Len(t, e.Directories["passkeys.2stable.com"], 1)

			require.Len(t, res.Conflicts, 1)
			c := res.Conflicts[0]
			assert.Equal(t, "domain mismatch", c.Reason)
			assert.Equal(t, "acme.com", *c.Entity.Domain)
		})
	}
}

func TestMerge_UnresolvableDomainConflictsButKeepsCurrent(t *testing.T) {
	f := newFixture().
		dir("passkeys.io", `{"domain":"acme.com","name":"Acme","url":"https://acme.com"}`).
		dir("passkeys.2stable.com", `{"domain":"10.0.0.1","name":"Acme"}`)

	res := mustMerge(t, newTestMerger(t), f)

	require.Len(t, res.Entities, 1)
	e := res.Entities[0]
	assert.Equal(t, "acme.com", *e.Domain)
	assert.Len(t, e.Directories["passkeys.2stable.com"], 1)

	require.Len(t, res.Conflicts, 1)
	assert.Equal(t, "domain mismatch", res.Conflicts[0].Reason)
}

func TestMerge_DomainMatchTakesPriorityOverName(t *testing.T) {
	f := newFixture().
		dir("passkeys.directory",
			`{"domain":"foo.com","name":"Foo","passkey_signin":true}`,
			`{"domain":"bar.com","name":"Bar","passkey_signin":true}`).
		dir("passkeys.2stable.com", `{"domain":"foo.com","name":"Bar"}`)

	res := mustMerge(t, newTestMerger(t), f)

	require.Len(t, res.Entities, 2)
	assert.Len(t, res.Entities[0].Directories["passkeys.2stable.com"], 1)
	assert.Empty(t, res.Entities[1].Directories["passkeys.2stable.com"])
}

func TestMerge_NameOnlySourceMatchesAlternates(t *testing.T) {
	f := newFixture().
		dir("passkeys.directory",
			`{"domain":"x.com","name":"X","passkey_signin":true}`,
			`{"domain":"x.com","name":"Twitter","passkey_signin":true}`).
		dir("hideez.com", `{"name":"X"}`, `{"name":"Mastodon Social"}`)

	res := mustMerge(t, newTestMerger(t), f)

	require.Len(t, res.Entities, 2)
	assert.Equal(t, "Twitter", *res.Entities[0].Name)
	assert.Equal(t, []string{"X"}, res.Entities[0].Alt)
	assert.Len(t, res.Entities[0].Directories["hideez.com"], 1)
	assert.Equal(t, "Mastodon Social", *res.Entities[1].Name)
	assert.Nil(t, res.Entities[1].Domain)
}

func TestMerge_DomainOnlySourceNeverMatchesByName(t *testing.T) {
	f := newFixture().
		dir("passkeys.directory", `{"domain":"example.com","name":"Example","passkey_signin":true}`).
		dir("passkeys-directory.dashlane.com", `{"domain":"sample.net","name":"Example"}`)

	res := mustMerge(t, newTestMerger(t), f)

	require.Len(t, res.Entities, 2)
	e := res.Entities[1]
	assert.Nil(t, e.Name)
	assert.Equal(t, "sample.net", *e.Domain)
}

func TestMerge_InclusionFilter(t *testing.T) {
	f := newFixture().
		dir("passkeys.directory",
			`{"domain":"a.com","name":"Alpha","passkey_signin":false}`,
			`{"domain":"b.com","name":"Beta","passkey_mfa":"yes"}`).
		dir("2fa.directory",
			`{"domain":"c.com","name":"Gamma","tfa":["totp"]}`,
			`{"domain":"d.com","name":"Delta","tfa":["totp","u2f"]}`)

	res := mustMerge(t, newTestMerger(t), f)

	require.Len(t, res.Entities, 2)
	assert.Equal(t, "Beta", *res.Entities[0].Name)
	assert.True(t, *res.Entities[0].MFA)
	assert.Equal(t, "Delta", *res.Entities[1].Name)
	assert.True(t, *res.Entities[1].MFA)
}

func TestMerge_PasskeyIndexWithoutURLMatchesByName(t *testing.T) {
	f := newFixture().
		dir("passkeys.directory", `{"domain":"paypal.com","name":"PayPal","passkey_signin":true}`).
		dir("passkeyindex.io", `{"name":"PayPal Inc","url":null,"features":["mfa"]}`)

	res := mustMerge(t, newTestMerger(t), f)

	require.Len(t, res.Entities, 1)
	e := res.Entities[0]
	assert.Equal(t, "PayPal", *e.Name)
	assert.Empty(t, e.Alt, "equivalent names are not recorded as alternates")
	assert.True(t, *e.MFA)
	require.Len(t, res.Conflicts, 1)
	assert.Equal(t, "signin mismatch", res.Conflicts[0].Reason)
	assert.False(t, *e.Signin)
}

func TestMerge_MissingFieldSkipsWholeSourceBatch(t *testing.T) {
	f := newFixture().
		dir("passkeys.directory",
			`{"domain":"a.com","name":"Alpha","passkey_signin":true}`,
			`{"domain":"b.com","passkey_signin":true}`).
		dir("passkeys.com", `{"name":"Gamma"}`)

	res, err := newTestMerger(t).Merge(context.Background(), f.artifact)
	require.Error(t, err)
	assert.True(t, errors.IsMissingField(err))

	var mf *errors.MissingFieldError
	require.True(t, errors.As(err, &mf))
	assert.Equal(t, "passkeys.directory", mf.Source)
	assert.Equal(t, "name", mf.Field)
	assert.Equal(t, 1, mf.Index)

	require.NotNil(t, res)
	assert.Equal(t, []string{"passkeys.directory"}, res.Skipped)
	require.Len(t, res.Entities, 1)
	assert.Equal(t, "Gamma", *res.Entities[0].Name)
}

func TestMerge_ExcludedRecordsAreNotValidated(t *testing.T) {
	f := newFixture().
		dir("passkeys.directory", `{"name":"No Domain","passkey_signin":false}`)

	res := mustMerge(t, newTestMerger(t), f)
	assert.Empty(t, res.Entities)
}

func TestMerge_AltNeverContainsCurrentName(t *testing.T) {
	f := newFixture().
		dir("passkeys.directory", `{"domain":"acme.com","name":"Acme","passkey_signin":true}`).
		dir("passkeys.io", `{"domain":"acme.com","name":"Wile Industries","url":"https://acme.com"}`).
		dir("passkeys.2stable.com", `{"domain":"acme.com","name":"Acme"}`)

	res := mustMerge(t, newTestMerger(t), f)

	require.Len(t, res.Entities, 1)
	e := res.Entities[0]
	assert.Equal(t, "Acme", *e.Name)
	assert.NotContains(t, e.Alt, *e.Name)
	assert.Equal(t, []string{"Wile Industries"}, e.Alt)
	assert.Len(t, res.Conflicts, 2)
}

func TestMerge_Idempotent(t *testing.T) {
	f := richFixture()
	m := newTestMerger(t)

	first, err := m.Merge(context.Background(), f.artifact)
	require.NoError(t, err)
	second, err := m.Merge(context.Background(), f.artifact)
	require.NoError(t, err)

	a, err := json.Marshal(first.Entities)
	require.NoError(t, err)
	b, err := json.Marshal(second.Entities)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))

	a, err = json.Marshal(first.Conflicts)
	require.NoError(t, err)
	b, err = json.Marshal(second.Conflicts)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestMerge_Provenance(t *testing.T) {
	f := richFixture()
	res := mustMerge(t, newTestMerger(t), f)

	for _, a := range DefaultAdapters() {
		for _, rec := range f.artifact.Records(a.Category, a.Subtype) {
			if a.Include != nil && !a.Include(rec) {
				continue
			}
			found := 0
			for _, e := range res.Entities {
				for _, ev := range e.Evidence(a.Category, a.Subtype) {
					if ev.Equal(rec) {
						found++
					}
				}
			}
			assert.Equal(t, 1, found, "%s record %s", a.Name, rec.Raw())
		}
	}

	out, err := json.Marshal(res.Entities)
	require.NoError(t, err)
	assert.Contains(t, string(out), `{"origin":"login.example.com","endpoints":{"enroll":"https://example.com/enroll"}}`)
}

func TestMerge_EmptyArtifact(t *testing.T) {
	res, err := newTestMerger(t).Merge(context.Background(), newFixture().artifact)
	require.NoError(t, err)
	assert.NotNil(t, res.Entities)
	assert.NotNil(t, res.Conflicts)
	assert.Empty(t, res.Entities)
	assert.Equal(t, testID, res.ID)
}

func TestMerge_AliasedDomains(t *testing.T) {
	f := newFixture().
		dir("passkeys.directory", `{"domain":"google.com","name":"Google","passkey_signin":true}`).
		wellknown("webauthn", `{"origin":"accounts.youtube.com"}`)

	aliases, err := normalize.DefaultAliases()
	require.NoError(t, err)
	m, err := New(normalize.New(aliases), WithLogger(logging.NewNopLogger()))
	require.NoError(t, err)
	res := mustMerge(t, m, f)

	require.Len(t, res.Entities, 1)
	assert.Len(t, res.Entities[0].Wellknown["webauthn"], 1)
}

func TestConflict_JSON(t *testing.T) {
	name := "Example"
	c := Conflict{Reason: "name mismatch", Entity: *newEntity()}
	c.Entity.Name = &name

	data, err := json.Marshal(c)
	require.NoError(t, err)
	assert.JSONEq(t, `["name mismatch",{"name":"Example","domain":null,"alt":[],"signin":null,"mfa":null,"directories":{},"wellknown":{}}]`, string(data))

	var back Conflict
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, "name mismatch", back.Reason)
	assert.Equal(t, "Example", *back.Entity.Name)

	assert.Error(t, json.Unmarshal([]byte(`["only reason"]`), &back))
}

func TestNew_Validation(t *testing.T) {
	_, err := New(nil)
	assert.True(t, errors.IsValidationError(err))

	_, err = New(normalize.New(nil), WithConflictPolicy("newest"))
	assert.True(t, errors.IsValidationError(err))

	_, err = New(normalize.New(nil), WithAdapters(Adapter{Name: "x"}))
	assert.True(t, errors.IsValidationError(err))
}

func TestParseConflictPolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    ConflictPolicy
		wantErr bool
	}{
		{"", PolicyOverwrite, false},
		{"overwrite", PolicyOverwrite, false},
		{" Keep-First ", PolicyKeepFirst, false},
		{"latest", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseConflictPolicy(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDefaultAdapters_Order(t *testing.T) {
	var names []string
	for _, a := range DefaultAdapters() {
		names = append(names, a.Name)
	}
	assert.Equal(t, []string{
		"passkeys.directory", "dashlane", "passkeyindex", "twofa-directory-passkeys",
		"2fa-directory", "passkeys.io", "fidoalliance", "passkeys.com", "enpass",
		"keepersecurity", "hideez", "twostable", "wellknown.webauthn", "wellknown.endpoints",
	}, names)
}

func richFixture() *fixture {
	return newFixture().
		dir("passkeys.directory",
			`{"domain":"example.com","name":"Example","passkey_signin":true}`,
			`{"domain":"shop.co.uk","name":"Shop","passkey_mfa":true}`,
			`{"domain":"hidden.com","name":"Hidden","passkey_signin":false}`).
		dir("passkeys-directory.dashlane.com",
			`{"domain":"example.de"}`,
			`{"domain":"fresh.io"}`).
		dir("passkeyindex.io",
			`{"name":"Example GmbH","url":"https://example.com","features":["login"]}`,
			`{"name":"Indexed","url":null,"features":null}`).
		dir("passkeys.2fa.directory",
			`{"domain":"shop.co.uk","name":"Shop UK","passwordless":"required","mfa":"allowed"}`).
		dir("2fa.directory",
			`{"domain":"example.com","name":"Example","tfa":["u2f"]}`).
		dir("fidoalliance.org", `{"post_title":"Shop UK"}`).
		dir("passkeys.com", `{"name":"Indexed"}`).
		dir("enpass.io", `{"domain":"fresh.io","name":"Fresh","usage_type":["sign_in"]}`).
		dir("keepersecurity.com", `{"name":"Fresh","signin":true,"mfa":false}`).
		dir("hideez.com", `{"name":"Nobody Else"}`).
		dir("passkeys.2stable.com", `{"domain":"example.com","name":"Example"}`).
		wellknown("webauthn", `{"origin":"example.com"}`).
		wellknown("endpoints", `{"origin":"login.example.com","endpoints":{"enroll":"https://example.com/enroll"}}`)
}
