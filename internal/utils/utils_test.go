package utils

import (
    "strings"
    "testing"
    "time"

    "github.com/golang-jwt/jwt/v5"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
    "golang.org/x/crypto/bcrypt"
)

func TestAccessTokenRoundTrip(t *testing.T) {
    tok, err := NewAccessToken("s3cret", 42, "Founder", "Fay", 15)
    require.NoError(t, err)
    assert.WithinDuration(t, time.Now().Add(15*time.Minute), tok.Exp, 5*time.Second)

    cl, err := ParseAccessToken("s3cret", tok.Token)
    require.NoError(t, err)
    assert.Equal(t, Claims{UserID: 42, Role: "Founder", Name: "Fay"}, cl)
}

func TestParseAccessTokenRejects(t *testing.T) {
    good, err := NewAccessToken("s3cret", 1, "Admin", "Root", 5)
    require.NoError(t, err)
    _, err = ParseAccessToken("other", good.Token)
    assert.ErrorIs(t, err, ErrInvalidToken)

    expired, err := NewAccessToken("s3cret", 1, "Admin", "Root", -5)
    require.NoError(t, err)
    _, err = ParseAccessToken("s3cret", expired.Token)
    assert.ErrorIs(t, err, ErrInvalidToken)

    noSub := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"role": "Admin", "exp": time.Now().Add(time.Hour).Unix()})
    raw, err := noSub.SignedString([]byte("s3cret"))
    require.NoError(t, err)
    _, err = ParseAccessToken("s3cret", raw)
    assert.ErrorIs(t, err, ErrInvalidToken)

    hs512 := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.MapClaims{"sub": "1", "exp": time.Now().Add(time.Hour).Unix()})
    raw, err = hs512.SignedString([]byte("s3cret"))
    require.NoError(t, err)
    _, err = ParseAccessToken("s3cret", raw)
    assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefreshTokenHashing(t *testing.T) {
    a, err := NewRefreshToken(7)
    require.NoError(t, err)
    b, err := NewRefreshToken(7)
    require.NoError(t, err)
    assert.Len(t, a.Raw, 96)
    assert.NotEqual(t, a.Raw, b.Raw)
    assert.Len(t, HashRefreshRaw(a.Raw), 64)
    assert.Equal(t, HashRefreshRaw(a.Raw), HashRefreshRaw(a.Raw))
}

func TestPasswordHashing(t *testing.T) {
    h, err := HashPassword("pa55word", bcrypt.MinCost)
    require.NoError(t, err)
    assert.NotEqual(t, "pa55word", h)
    assert.True(t, VerifyPassword(h, "pa55word"))
    assert.False(t, VerifyPassword(h, "wrong"))
    assert.False(t, VerifyPassword("", "pa55word"))

    _, err = HashPassword(strings.Repeat("x", MaxPasswordBytes+1), bcrypt.MinCost)
    assert.ErrorIs(t, err, ErrPasswordTooLong)

    h, err = HashPassword("pa55word", 0)
    require.NoError(t, err)
    cost, _ := bcrypt.Cost([]byte(h))
    assert.Equal(t, bcrypt.DefaultCost, cost)
}
