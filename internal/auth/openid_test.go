package auth

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	user "github.com/larder-app/larder/internal/db/controller/user"
	"github.com/larder-app/larder/internal/db/models"

	"github.com/larder-app/larder/internal/auth/token"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to open sqlite in-memory db")

	require.NoError(t, db.AutoMigrate(&models.User{}), "failed to migrate user model")

	return db
}

func newTestTokenIssuer(t *testing.T) *token.Issuer {
	t.Helper()

	issuer, err := token.NewIssuer(token.Config{
		Secret:         "test-secret",
		Issuer:         "larder-test",
		Expiry:         time.Hour,
		RememberExpiry: 24 * time.Hour,
	})
	require.NoError(t, err)

	return issuer
}

// defaultOIDCOptions returns the options most tests start from.
func defaultOIDCOptions() OIDCOptions {
	return OIDCOptions{
		UserClaim:     "email",
		NameClaim:     "name",
		GroupsClaim:   "groups",
		SignupEnabled: true,
	}
}

// validClaims returns a claim set that passes the required claims check
// with defaultOIDCOptions.
func validClaims() Claims {
	return Claims{
		"name":  "Alice Doe",
		"email": "alice@example.com",
	}
}

func TestAuthenticate_EmptyClaims(t *testing.T) {
	p := NewOpenIDProvider(newTestDB(t), newTestTokenIssuer(t), defaultOIDCOptions())

	cred, err := p.Authenticate(nil)
	require.ErrorIs(t, err, ErrInsufficientClaims)
	assert.Nil(t, cred)

	cred, err = p.Authenticate(Claims{})
	require.ErrorIs(t, err, ErrInsufficientClaims)
	assert.Nil(t, cred)
}

func TestAuthenticate_MissingRequiredClaims(t *testing.T) {
	testCases := []struct {
		name   string
		opts   func(o OIDCOptions) OIDCOptions
		claims Claims
	}{
		{
			name:   "missing email",
			opts:   func(o OIDCOptions) OIDCOptions { return o },
			claims: Claims{"name": "Alice Doe"},
		},
		{
			name:   "missing name claim",
			opts:   func(o OIDCOptions) OIDCOptions { return o },
			claims: Claims{"email": "alice@example.com"},
		},
		{
			name: "missing groups claim when group checking is on",
			opts: func(o OIDCOptions) OIDCOptions {
				o.RequiresGroupClaim = true
				return o
			},
			claims: validClaims(),
		},
		{
			name: "missing configured user claim",
			opts: func(o OIDCOptions) OIDCOptions {
				o.UserClaim = "sub"
				return o
			},
			claims: validClaims(),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			db := newTestDB(t)
			p := NewOpenIDProvider(db, newTestTokenIssuer(t), tc.opts(defaultOIDCOptions()))

			cred, err := p.Authenticate(tc.claims)
			require.ErrorIs(t, err, ErrInsufficientClaims)
			assert.Nil(t, cred)

			count, err := user.Count(db)
			require.NoError(t, err)
			assert.Zero(t, count, "refusal must not write users")
		})
	}
}

func TestAuthenticate_GroupMembership(t *testing.T) {
	groupOpts := func(adminGroup, userGroup string) OIDCOptions {
		o := defaultOIDCOptions()
		o.RequiresGroupClaim = true
		o.AdminGroup = adminGroup
		o.UserGroup = userGroup

		return o
	}

	claimsWithGroups := func(groups ...string) Claims {
		c := validClaims()
		c["groups"] = groups

		return c
	}

	testCases := []struct {
		name          string
		opts          OIDCOptions
		claims        Claims
		expectedError error
		expectAdmin   bool
	}{
		{
			name:          "member of neither group is refused",
			opts:          groupOpts("admins", "users"),
			claims:        claimsWithGroups("staff"),
			expectedError: ErrGroupMembership,
		},
		{
			name:          "groups claim present but empty is refused",
			opts:          groupOpts("admins", "users"),
			claims:        claimsWithGroups(),
			expectedError: ErrGroupMembership,
		},
		{
			name:        "user group member signs in without admin",
			opts:        groupOpts("admins", "users"),
			claims:      claimsWithGroups("users"),
			expectAdmin: false,
		},
		{
			name:        "admin group member signs in even outside the user group",
			opts:        groupOpts("admins", "users"),
			claims:      claimsWithGroups("admins"),
			expectAdmin: true,
		},
		{
			name:        "unconfigured user group admits any authenticated user",
			opts:        groupOpts("admins", ""),
			claims:      claimsWithGroups("staff"),
			expectAdmin: false,
		},
		{
			name:          "unconfigured admin group never grants admin",
			opts:          groupOpts("", "users"),
			claims:        claimsWithGroups("staff"),
			expectedError: ErrGroupMembership,
		},
		{
			name: "list claim decoded as []any is tolerated",
			opts: groupOpts("admins", "users"),
			claims: Claims{
				"name":   "Alice Doe",
				"email":  "alice@example.com",
				"groups": []any{"admins"},
			},
			expectAdmin: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			db := newTestDB(t)
			p := NewOpenIDProvider(db, newTestTokenIssuer(t), tc.opts)

			cred, err := p.Authenticate(tc.claims)

			if tc.expectedError != nil {
				require.ErrorIs(t, err, tc.expectedError)
				assert.Nil(t, cred)

				count, errCount := user.Count(db)
				require.NoError(t, errCount)
				assert.Zero(t, count, "refusal must not write users")

				return
			}

			require.NoError(t, err)
			require.NotNil(t, cred)
			assert.NotEmpty(t, cred.Token)

			usr, err := user.GetByUsernameAndMethod(db, "alice@example.com", models.AuthMethodOIDC)
			require.NoError(t, err)
			assert.Equal(t, tc.expectAdmin, usr.Admin)
		})
	}
}

func TestAuthenticate_SignupDisabled(t *testing.T) {
	db := newTestDB(t)

	opts := defaultOIDCOptions()
	opts.SignupEnabled = false

	p := NewOpenIDProvider(db, newTestTokenIssuer(t), opts)

	cred, err := p.Authenticate(validClaims())
	require.ErrorIs(t, err, ErrSignupDisabled)
	assert.Nil(t, cred)

	count, err := user.Count(db)
	require.NoError(t, err)
	assert.Zero(t, count, "signup refusal must not write users")
}

func TestAuthenticate_SignupUsernamePrecedence(t *testing.T) {
	testCases := []struct {
		name             string
		claims           Claims
		expectedUsername string
	}{
		{
			name: "preferred_username wins",
			claims: Claims{
				"name":               "Alice Doe",
				"email":              "alice@example.com",
				"preferred_username": "alice.preferred",
				"username":           "alice.plain",
			},
			expectedUsername: "alice.preferred",
		},
		{
			name: "username beats the user claim",
			claims: Claims{
				"name":     "Alice Doe",
				"email":    "alice@example.com",
				"username": "alice.plain",
			},
			expectedUsername: "alice.plain",
		},
		{
			name:             "user claim is the fallback",
			claims:           validClaims(),
			expectedUsername: "alice@example.com",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			db := newTestDB(t)
			p := NewOpenIDProvider(db, newTestTokenIssuer(t), defaultOIDCOptions())

			cred, err := p.Authenticate(tc.claims)
			require.NoError(t, err)
			require.NotNil(t, cred)

			usr, err := user.GetByUsernameAndMethod(db, tc.expectedUsername, models.AuthMethodOIDC)
			require.NoError(t, err)
			assert.Equal(t, "Alice Doe", usr.FullName)
			assert.Equal(t, "alice@example.com", usr.Email)
			assert.Equal(t, models.UnusablePassword, usr.Password)
			assert.False(t, usr.Admin)
		})
	}
}

func TestAuthenticate_SignupLookupStillUsesUserClaim(t *testing.T) {
	// The lookup key is always the configured user claim; the username
	// precedence only applies to the freshly provisioned record. A second
	// login with the same claims must find the created user again.
	db := newTestDB(t)
	p := NewOpenIDProvider(db, newTestTokenIssuer(t), defaultOIDCOptions())

	claims := Claims{
		"name":               "Alice Doe",
		"email":              "alice@example.com",
		"preferred_username": "alice@example.com",
	}

	_, err := p.Authenticate(claims)
	require.NoError(t, err)

	_, err = p.Authenticate(claims)
	require.NoError(t, err)

	count, err := user.Count(db)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestAuthenticate_ExistingUserAdminSync(t *testing.T) {
	opts := defaultOIDCOptions()
	opts.RequiresGroupClaim = true
	opts.AdminGroup = "admins"

	claimsWithGroups := func(groups ...string) Claims {
		c := validClaims()
		c["groups"] = groups

		return c
	}

	t.Run("promotes on admin group membership", func(t *testing.T) {
		db := newTestDB(t)
		require.NoError(t, user.Create(db, &models.User{
			Username:   "alice@example.com",
			Email:      "alice@example.com",
			Admin:      false,
			AuthMethod: models.AuthMethodOIDC,
		}))

		p := NewOpenIDProvider(db, newTestTokenIssuer(t), opts)

		cred, err := p.Authenticate(claimsWithGroups("admins"))
		require.NoError(t, err)
		require.NotNil(t, cred)

		usr, err := user.GetByUsernameAndMethod(db, "alice@example.com", models.AuthMethodOIDC)
		require.NoError(t, err)
		assert.True(t, usr.Admin)
	})

	t.Run("demotes when admin group membership is gone", func(t *testing.T) {
		db := newTestDB(t)
		require.NoError(t, user.Create(db, &models.User{
			Username:   "alice@example.com",
			Email:      "alice@example.com",
			Admin:      true,
			AuthMethod: models.AuthMethodOIDC,
		}))

		p := NewOpenIDProvider(db, newTestTokenIssuer(t), opts)

		cred, err := p.Authenticate(claimsWithGroups())
		require.NoError(t, err)
		require.NotNil(t, cred)

		usr, err := user.GetByUsernameAndMethod(db, "alice@example.com", models.AuthMethodOIDC)
		require.NoError(t, err)
		assert.False(t, usr.Admin)
	})

	t.Run("no admin group configured leaves the flag alone", func(t *testing.T) {
		db := newTestDB(t)
		require.NoError(t, user.Create(db, &models.User{
			Username:   "alice@example.com",
			Email:      "alice@example.com",
			Admin:      true,
			AuthMethod: models.AuthMethodOIDC,
		}))

		noAdminOpts := defaultOIDCOptions()
		noAdminOpts.RequiresGroupClaim = true

		p := NewOpenIDProvider(db, newTestTokenIssuer(t), noAdminOpts)

		cred, err := p.Authenticate(claimsWithGroups("staff"))
		require.NoError(t, err)
		require.NotNil(t, cred)

		usr, err := user.GetByUsernameAndMethod(db, "alice@example.com", models.AuthMethodOIDC)
		require.NoError(t, err)
		assert.True(t, usr.Admin)
	})
}

func TestAuthenticate_AuthMethodMismatch(t *testing.T) {
	// A same-named user under a different auth method is treated as not
	// found: refusal when signup is off, and a provisioning attempt (which
	// must fail cleanly on the duplicate username) when signup is on.
	seedLocalUser := func(t *testing.T, db *gorm.DB) {
		t.Helper()

		require.NoError(t, user.Create(db, &models.User{
			Username:   "alice@example.com",
			Email:      "alice@example.com",
			Password:   models.HashPassword("secret"),
			AuthMethod: models.AuthMethodLocal,
		}))
	}

	t.Run("signup disabled refuses", func(t *testing.T) {
		db := newTestDB(t)
		seedLocalUser(t, db)

		opts := defaultOIDCOptions()
		opts.SignupEnabled = false

		p := NewOpenIDProvider(db, newTestTokenIssuer(t), opts)

		cred, err := p.Authenticate(validClaims())
		require.ErrorIs(t, err, ErrSignupDisabled)
		assert.Nil(t, cred)
	})

	t.Run("signup enabled fails on duplicate username without panicking", func(t *testing.T) {
		db := newTestDB(t)
		seedLocalUser(t, db)

		p := NewOpenIDProvider(db, newTestTokenIssuer(t), defaultOIDCOptions())

		cred, err := p.Authenticate(validClaims())
		require.ErrorIs(t, err, ErrProvisioningFailed)
		assert.Nil(t, cred)

		// the local account is untouched
		usr, err := user.GetByUsernameAndMethod(db, "alice@example.com", models.AuthMethodLocal)
		require.NoError(t, err)
		assert.Equal(t, models.AuthMethodLocal, usr.AuthMethod)

		count, err := user.Count(db)
		require.NoError(t, err)
		assert.EqualValues(t, 1, count)
	})
}

func TestAuthenticate_PersistenceFailure(t *testing.T) {
	// A failing user table turns into a refusal, never a panic or a raw
	// database error. Dropping the table is the bluntest way to make every
	// query fail.
	db := newTestDB(t)
	require.NoError(t, db.Migrator().DropTable(&models.User{}))

	p := NewOpenIDProvider(db, newTestTokenIssuer(t), defaultOIDCOptions())

	cred, err := p.Authenticate(validClaims())
	require.Error(t, err)
	assert.Nil(t, cred)
	assert.NotErrorIs(t, err, gorm.ErrRecordNotFound, "database errors must not leak")
}

func TestAuthenticate_RememberMe(t *testing.T) {
	db := newTestDB(t)

	opts := defaultOIDCOptions()
	opts.RememberMe = true

	p := NewOpenIDProvider(db, newTestTokenIssuer(t), opts)

	cred, err := p.Authenticate(validClaims())
	require.NoError(t, err)
	require.NotNil(t, cred)
	assert.Equal(t, 24*time.Hour, cred.ExpiresIn, "remember me selects the long lifetime")
}

func TestAuthenticate_CredentialIsParseable(t *testing.T) {
	db := newTestDB(t)
	tokens := newTestTokenIssuer(t)
	p := NewOpenIDProvider(db, tokens, defaultOIDCOptions())

	cred, err := p.Authenticate(validClaims())
	require.NoError(t, err)
	require.NotNil(t, cred)

	claims, err := tokens.Parse(cred.Token)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", claims.Username)
	assert.False(t, claims.Admin)
}
