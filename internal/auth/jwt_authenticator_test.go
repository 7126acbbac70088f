package auth_test

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"fmt"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/golang-jwt/jwt/v5"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/synthetica/platform/internal/auth"
)

var _ = Describe("jwt authentication", func() {
	Context("token validation", func() {
		It("successfully validate the token", func() {
			sToken, keyFn := generateCustomToken("batman", "GothamCity", "batman@gothamcity.com")
			authenticator, err := auth.NewJWTAuthenticatorWithKeyFn(keyFn)
			Expect(err).To(BeNil())

			user, err := authenticator.Authenticate(sToken)
			Expect(err).To(BeNil())
			Expect(user.Username).To(Equal("batman"))
			Expect(user.Organization).To(Equal("GothamCity"))
			Expect(user.EmailDomain).To(Equal("gothamcity.com"))
		})

		It("successfully validate the token -- no orgID", func() {
			sToken, keyFn := generateCustomToken("user@company.com", "", "user@company.com")
			authenticator, err := auth.NewJWTAuthenticatorWithKeyFn(keyFn)
			Expect(err).To(BeNil())

			user, err := authenticator.Authenticate(sToken)
			Expect(err).To(BeNil())
			Expect(user.Username).To(Equal("user@company.com"))
			Expect(user.Organization).To(Equal("user@company.com"))
		})

		It("fails to authenticate -- wrong signing method", func() {
			sToken, keyFn := generateInvalidTokenWrongSigningMethod()
			authenticator, err := auth.NewJWTAuthenticatorWithKeyFn(keyFn)
			Expect(err).To(BeNil())

			_, err = authenticator.Authenticate(sToken)
			Expect(err).ToNot(BeNil())
		})

		It("fails to authenticate -- username is missing", func() {
			sToken, keyFn := generateCustomToken("", "org", "user@company.com")
			authenticator, err := auth.NewJWTAuthenticatorWithKeyFn(keyFn)
			Expect(err).To(BeNil())

			_, err = authenticator.Authenticate(sToken)
			Expect(err).ToNot(BeNil())
		})
	})

	Context("jwt auth middleware", func() {
		It("successfully authenticate", func() {
			sToken, keyFn := generateCustomToken("batman", "GothamCity", "batman@gothamcity.com")
			authenticator, err := auth.NewJWTAuthenticatorWithKeyFn(keyFn)
			Expect(err).To(BeNil())

			h := &handler{}
			ts := httptest.NewServer(authenticator.Authenticator(h))
			defer ts.Close()

			req, err := http.NewRequest(http.MethodGet, ts.URL, nil)
			Expect(err).To(BeNil())
			req.Header.Add("Authorization", fmt.Sprintf("Bearer %s", sToken))

			resp, rerr := http.DefaultClient.Do(req)
			Expect(rerr).To(BeNil())
			Expect(resp.StatusCode).To(Equal(200))
		})

		It("failed to authenticate -- no token", func() {
			_, keyFn := generateCustomToken("batman", "GothamCity", "batman@gothamcity.com")
			authenticator, err := auth.NewJWTAuthenticatorWithKeyFn(keyFn)
			Expect(err).To(BeNil())

			h := &handler{}
			ts := httptest.NewServer(authenticator.Authenticator(h))
			defer ts.Close()

			resp, rerr := http.Get(ts.URL)
			Expect(rerr).To(BeNil())
			Expect(resp.StatusCode).To(Equal(401))
		})

		It("failed to authenticate -- bad token", func() {
			sToken, _ := generateInvalidTokenWrongSigningMethod()
			_, keyFn := generateCustomToken("batman", "GothamCity", "batman@gothamcity.com")
			authenticator, err := auth.NewJWTAuthenticatorWithKeyFn(keyFn)
			Expect(err).To(BeNil())

			h := &handler{}
			ts := httptest.NewServer(authenticator.Authenticator(h))
			defer ts.Close()

			req, err := http.NewRequest(http.MethodGet, ts.URL, nil)
			Expect(err).To(BeNil())
			req.Header.Add("Authorization", fmt.Sprintf("Bearer %s", sToken))

			resp, rerr := http.DefaultClient.Do(req)
			Expect(rerr).To(BeNil())
			Expect(resp.StatusCode).To(Equal(401))
		})
	})
})

type handler struct{}

func (h *handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(200)
}

type tokenClaims struct {
	PreferredUsername string `json:"preferred_username,omitempty"`
	OrgID             string `json:"org_id,omitempty"`
	Email             string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

func generateCustomToken(username, orgID, email string) (string, func(t *jwt.Token) (any, error)) {
	claims := tokenClaims{
		username,
		orgID,
		email,
		jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
			Issuer:    "test",
			Subject:   "somebody",
			Audience:  []string{"somebody_else"},
		},
	}

	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	Expect(err).To(BeNil())

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	sToken, err := token.SignedString(privateKey)
	Expect(err).To(BeNil())

	return sToken, func(t *jwt.Token) (any, error) {
		return &privateKey.PublicKey, nil
	}
}

func generateInvalidTokenWrongSigningMethod() (string, func(t *jwt.Token) (any, error)) {
	claims := tokenClaims{
		PreferredUsername: "batman",
		OrgID:             "GothamCity",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	privateKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	Expect(err).To(BeNil())

	token := jwt.NewWithClaims(jwt.SigningMethodES256, claims)
	sToken, err := token.SignedString(privateKey)
	Expect(err).To(BeNil())

	return sToken, func(t *jwt.Token) (any, error) {
		return &privateKey.PublicKey, nil
	}
}
