package merger

import (
	"github.com/passkeyradar/radar/internal/utils/ptr"
	"github.com/passkeyradar/radar/pkg/constants"
	"github.com/passkeyradar/radar/pkg/snapshot"
)

var supportLevels = []string{"required", "allowed"}

// DefaultAdapters returns the fourteen passkey sources in merge priority
// order. Later sources attach to entities established by earlier ones, so
// the order changes the output and must not be rearranged.
func DefaultAdapters() []Adapter {
	return []Adapter{
		{
			Name:     "passkeys.directory",
			Category: constants.CategoryDirectories,
			Subtype:  "passkeys.directory",
			Include: func(r snapshot.Record) bool {
				return r.Truthy("passkey_signin") || r.Truthy("passkey_mfa")
			},
			Required: []string{"domain", "name"},
			Match:    MatchDomainOrName,
			Extract: func(r snapshot.Record) Fields {
				return Fields{
					Name:   str(r, "name"),
					Domain: str(r, "domain"),
					Signin: flag(r, "passkey_signin"),
					MFA:    flag(r, "passkey_mfa"),
				}
			},
			Reconcile: always(FieldName, FieldDomain, FieldSignin, FieldMFA),
		},
		{
			Name:     "dashlane",
			Category: constants.CategoryDirectories,
			Subtype:  "passkeys-directory.dashlane.com",
			Required: []string{"domain"},
			Match:    MatchDomain,
			Extract: func(r snapshot.Record) Fields {
				return Fields{Domain: str(r, "domain")}
			},
		},
		{
			Name:     "passkeyindex",
			Category: constants.CategoryDirectories,
			Subtype:  "passkeyindex.io",
			Required: []string{"name"},
			Check: func(r snapshot.Record) string {
				if r.IsNull("features") || r.Contains("features", "login") || r.Contains("features", "mfa") {
					return ""
				}
				return "features"
			},
			Match: MatchDomainOrName,
			Extract: func(r snapshot.Record) Fields {
				f := Fields{Name: str(r, "name"), Domain: str(r, "url")}
				if !r.IsNull("features") {
					f.Signin = ptr.Bool(r.Contains("features", "login"))
					f.MFA = ptr.Bool(r.Contains("features", "mfa"))
				}
				return f
			},
			Reconcile: func(r snapshot.Record) []Field {
				if r.IsNull("url") {
					return []Field{FieldSignin, FieldMFA}
				}
				return []Field{FieldName, FieldDomain, FieldSignin, FieldMFA}
			},
		},
		{
			Name:     "twofa-directory-passkeys",
			Category: constants.CategoryDirectories,
			Subtype:  "passkeys.2fa.directory",
			Include: func(r snapshot.Record) bool {
				return r.OneOf("passwordless", supportLevels...) || r.OneOf("mfa", supportLevels...)
			},
			Required: []string{"domain", "name"},
			Match:    MatchDomainOrName,
			Extract: func(r snapshot.Record) Fields {
				return Fields{
					Name:   str(r, "name"),
					Domain: str(r, "domain"),
					Signin: ptr.Bool(r.OneOf("passwordless", supportLevels...)),
					MFA:    ptr.Bool(r.OneOf("mfa", supportLevels...)),
				}
			},
			Reconcile: always(FieldName, FieldDomain, FieldSignin, FieldMFA),
		},
		{
			Name:     "2fa-directory",
			Category: constants.CategoryDirectories,
			Subtype:  "2fa.directory",
			Include: func(r snapshot.Record) bool {
				return r.Contains("tfa", "u2f")
			},
			Required: []string{"domain", "name"},
			Match:    MatchDomainOrName,
			Extract: func(r snapshot.Record) Fields {
				return Fields{
					Name:   str(r, "name"),
					Domain: str(r, "domain"),
					MFA:    ptr.Bool(r.Contains("tfa", "u2f")),
				}
			},
			Reconcile: always(FieldName, FieldDomain, FieldMFA),
		},
		{
			Name:     "passkeys.io",
			Category: constants.CategoryDirectories,
			Subtype:  "passkeys.io",
			Include: func(r snapshot.Record) bool {
				return !r.IsNull("domain") && !r.IsNull("name") && !r.IsNull("url")
			},
			Required: []string{"domain", "name", "url"},
			Match:    MatchDomainOrName,
			Extract: func(r snapshot.Record) Fields {
				return Fields{Name: str(r, "name"), Domain: str(r, "domain")}
			},
			Reconcile: always(FieldName, FieldDomain),
		},
		{
			Name:     "fidoalliance",
			Category: constants.CategoryDirectories,
			Subtype:  "fidoalliance.org",
			Required: []string{"post_title"},
			Match:    MatchName,
			Extract: func(r snapshot.Record) Fields {
				return Fields{Name: str(r, "post_title")}
			},
		},
		{
			Name:     "passkeys.com",
			Category: constants.CategoryDirectories,
			Subtype:  "passkeys.com",
			Required: []string{"name"},
			Match:    MatchName,
			Extract: func(r snapshot.Record) Fields {
				return Fields{Name: str(r, "name")}
			},
		},
		{
			Name:     "enpass",
			Category: constants.CategoryDirectories,
			Subtype:  "enpass.io",
			Required: []string{"domain", "name"},
			Check: func(r snapshot.Record) string {
				if r.Contains("usage_type", "sign_in") || r.Contains("usage_type", "mfa") {
					return ""
				}
				return "usage_type"
			},
			Match: MatchDomainOrName,
			Extract: func(r snapshot.Record) Fields {
				return Fields{
					Name:   str(r, "name"),
					Domain: str(r, "domain"),
					Signin: ptr.Bool(r.Contains("usage_type", "sign_in")),
					MFA:    ptr.Bool(r.Contains("usage_type", "mfa")),
				}
			},
			Reconcile: always(FieldName, FieldDomain, FieldSignin, FieldMFA),
		},
		{
			Name:     "keepersecurity",
			Category: constants.CategoryDirectories,
			Subtype:  "keepersecurity.com",
			Required: []string{"name", "signin", "mfa"},
			Match:    MatchName,
			Extract: func(r snapshot.Record) Fields {
				return Fields{
					Name:   str(r, "name"),
					Signin: ptr.Bool(r.Truthy("signin")),
					MFA:    ptr.Bool(r.Truthy("mfa")),
				}
			},
			Reconcile: always(FieldSignin, FieldMFA),
		},
		{
			Name:     "hideez",
			Category: constants.CategoryDirectories,
			Subtype:  "hideez.com",
			Required: []string{"name"},
			Match:    MatchName,
			Extract: func(r snapshot.Record) Fields {
				return Fields{Name: str(r, "name")}
			},
		},
		{
			Name:     "twostable",
			Category: constants.CategoryDirectories,
			Subtype:  "passkeys.2stable.com",
			Required: []string{"domain", "name"},
			Match:    MatchDomainOrName,
			Extract: func(r snapshot.Record) Fields {
				return Fields{Name: str(r, "name"), Domain: str(r, "domain")}
			},
			Reconcile: always(FieldName, FieldDomain),
		},
		{
			Name:     "wellknown.webauthn",
			Category: constants.CategoryWellknown,
			Subtype:  "webauthn",
			Required: []string{"origin"},
			Match:    MatchDomain,
			Extract: func(r snapshot.Record) Fields {
				return Fields{Domain: str(r, "origin")}
			},
		},
		{
			Name:     "wellknown.endpoints",
			Category: constants.CategoryWellknown,
			Subtype:  "endpoints",
			Required: []string{"origin"},
			Match:    MatchDomain,
			Extract: func(r snapshot.Record) Fields {
				return Fields{Domain: str(r, "origin")}
			},
		},
	}
}
