package signurl

import (
	"errors"
	"testing"
	"time"

	"constructly/backend/config"
)

func newTestSigner(ttl time.Duration) *Signer {
	return NewSigner(&config.StorageConfig{
		URLSecret: "test-secret-key-0123456789",
		URLTTL:    ttl,
	})
}

func TestSigner_SignAndVerify(t *testing.T) {
	s := newTestSigner(time.Hour)

	token, err := s.Sign("file-123")
	if err != nil {
		t.Fatalf("Sign 应成功: %v", err)
	}

	fileID, err := s.Verify(token)
	if err != nil {
		t.Fatalf("Verify 应成功: %v", err)
	}
	if fileID != "file-123" {
		t.Errorf("期望 file_id=file-123，实际=%s", fileID)
	}
}

func TestSigner_Expired(t *testing.T) {
	s := newTestSigner(-time.Minute)

	token, err := s.Sign("file-123")
	if err != nil {
		t.Fatalf("Sign 应成功: %v", err)
	}

	_, err = s.Verify(token)
	if !errors.Is(err, ErrTokenExpired) {
		t.Errorf("期望 ErrTokenExpired，实际=%v", err)
	}
}

func TestSigner_WrongSecret(t *testing.T) {
	s := newTestSigner(time.Hour)
	other := NewSigner(&config.StorageConfig{
		URLSecret: "another-secret-key-987654",
		URLTTL:    time.Hour,
	})

	token, _ := s.Sign("file-123")
	if _, err := other.Verify(token); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("期望 ErrTokenInvalid，实际=%v", err)
	}
}

func TestSigner_Garbage(t *testing.T) {
	s := newTestSigner(time.Hour)
	if _, err := s.Verify("not-a-token"); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("期望 ErrTokenInvalid，实际=%v", err)
	}
}
