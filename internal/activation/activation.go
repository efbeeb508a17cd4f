// Package activation issues and checks stateless email-activation tokens.
//
// A token is "<base36 unix seconds>-<hex hmac>". The HMAC covers the account id and
// the fields that change once the token has been used or should no longer be honoured
// (password hash, email, verification flag), so no server-side state is needed.
package activation

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/Skotchmaster/mini_online_store/internal/models"
)

const (
	keySalt   = "users.activation.TokenGenerator"
	sigLength = 32
)

var ErrMalformedUID = errors.New("malformed uid")

type Generator struct {
	key    []byte
	maxAge time.Duration
	now    func() time.Time
}

// NewGenerator returns a generator keyed by secret. maxAge <= 0 disables the age check.
func NewGenerator(secret []byte, maxAge time.Duration) *Generator {
	sum := sha256.Sum256(append([]byte(keySalt), secret...))
	return &Generator{key: sum[:], maxAge: maxAge, now: time.Now}
}

func (g *Generator) Make(a *models.Account) string {
	return g.makeAt(a, g.now().Unix())
}

func (g *Generator) makeAt(a *models.Account, ts int64) string {
	return strconv.FormatInt(ts, 36) + "-" + g.sign(a, ts)
}

// Check reports whether token was issued for a in its current state.
func (g *Generator) Check(a *models.Account, token string) bool {
	if a == nil || token == "" {
		return false
	}
	tsPart, sig, ok := strings.Cut(token, "-")
	if !ok || tsPart == "" || len(sig) != sigLength {
		return false
	}
	ts, err := strconv.ParseInt(tsPart, 36, 64)
	if err != nil || ts < 0 {
		return false
	}
	if !hmac.Equal([]byte(sig), []byte(g.sign(a, ts))) {
		return false
	}
	if g.maxAge > 0 && g.now().Sub(time.Unix(ts, 0)) > g.maxAge {
		return false
	}
	return true
}

func (g *Generator) sign(a *models.Account, ts int64) string {
	mac := hmac.New(sha256.New, g.key)
	mac.Write([]byte(fingerprint(a, ts)))
	return hex.EncodeToString(mac.Sum(nil))[:sigLength]
}

func fingerprint(a *models.Account, ts int64) string {
	return strings.Join([]string{
		strconv.FormatUint(uint64(a.ID), 10),
		a.PasswordHash,
		a.Email,
		strconv.FormatBool(a.IsEmailVerified),
		strconv.FormatInt(ts, 10),
	}, "|")
}

// EncodeUID is the URL-safe form of an account id used in activation links.
func EncodeUID(id uint) string {
	return base64.RawURLEncoding.EncodeToString([]byte(strconv.FormatUint(uint64(id), 10)))
}

func DecodeUID(uid string) (uint, error) {
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(uid, "="))
	if err != nil {
		return 0, ErrMalformedUID
	}
	id, err := strconv.ParseUint(string(raw), 10, 0)
	if err != nil || id == 0 {
		return 0, ErrMalformedUID
	}
	return uint(id), nil
}
