package signing

type token struct{}

func (t *token) SignedString(key interface{}) (string, error) {
	return "", nil
}

const embeddedKey = "top-secret"

func sign(t *token, configured []byte) {
	_, _ = t.SignedString([]byte("top-secret")) // want "signing key must not be a literal"
	_, _ = t.SignedString("top-secret")         // want "signing key must not be a literal"
	_, _ = t.SignedString([]byte(embeddedKey))  // want "signing key must not be a literal"
	_, _ = t.SignedString(configured)
}
