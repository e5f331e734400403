package hashutil

import "testing"

func TestArgon2RoundTrip(t *testing.T) {
	hash, err := HashArgon2("correct horse battery staple")
	if err != nil {
		t.Fatalf("HashArgon2 failed: %v", err)
	}
	if !VerifyArgon2("correct horse battery staple", hash) {
		t.Error("expected argon2 verification to succeed")
	}
	if VerifyArgon2("wrong password", hash) {
		t.Error("expected argon2 verification to fail for wrong password")
	}
}

func TestScryptRoundTrip(t *testing.T) {
	hash, err := HashScrypt("correct horse battery staple")
	if err != nil {
		t.Fatalf("HashScrypt failed: %v", err)
	}
	if !VerifyScrypt("correct horse battery staple", hash) {
		t.Error("expected scrypt verification to succeed")
	}
	if VerifyScrypt("wrong password", hash) {
		t.Error("expected scrypt verification to fail for wrong password")
	}
}

func TestBcryptRoundTrip(t *testing.T) {
	hash, err := HashBcrypt("correct horse battery staple")
	if err != nil {
		t.Fatalf("HashBcrypt failed: %v", err)
	}
	if !VerifyBcrypt("correct horse battery staple", hash) {
		t.Error("expected bcrypt verification to succeed")
	}
	if VerifyBcrypt("wrong password", hash) {
		t.Error("expected bcrypt verification to fail for wrong password")
	}
}

func TestVerifyMalformedHashNeverPanics(t *testing.T) {
	cases := []string{"", "not-a-phc-string", "$argon2id$garbage", "$2a$not-bcrypt"}
	for _, c := range cases {
		if Verify(SchemeArgon2, "x", c) {
			t.Errorf("expected malformed argon2 hash %q to fail verification", c)
		}
		if Verify(SchemeScrypt, "x", c) {
			t.Errorf("expected malformed scrypt hash %q to fail verification", c)
		}
		if Verify(SchemeBcrypt, "x", c) {
			t.Errorf("expected malformed bcrypt hash %q to fail verification", c)
		}
	}
}

func TestVerifyUnknownScheme(t *testing.T) {
	if Verify("whirlpool", "x", "y") {
		t.Error("expected unknown scheme to return false")
	}
}
