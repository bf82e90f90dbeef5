package auth

import (
	"testing"
	"time"
)

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("testpass123")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == "testpass123" {
		t.Fatal("hash must not equal the plaintext")
	}
	if !CheckPassword(hash, "testpass123") {
		t.Fatal("correct password rejected")
	}
	if CheckPassword(hash, "wrongpass") {
		t.Fatal("wrong password accepted")
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(time.Minute, 3)
	for i := 0; i < 3; i++ {
		if !rl.Allow("1.2.3.4") {
			t.Fatalf("attempt %d should be allowed", i+1)
		}
	}
	if rl.Allow("1.2.3.4") {
		t.Fatal("attempt over the limit should be denied")
	}
	// Other keys are unaffected.
	if !rl.Allow("5.6.7.8") {
		t.Fatal("separate key should be allowed")
	}
}

func TestRateLimiterWindowExpiry(t *testing.T) {
	rl := NewRateLimiter(10*time.Millisecond, 1)
	if !rl.Allow("k") {
		t.Fatal("first attempt should be allowed")
	}
	if rl.Allow("k") {
		t.Fatal("second attempt inside window should be denied")
	}
	time.Sleep(15 * time.Millisecond)
	if !rl.Allow("k") {
		t.Fatal("attempt after window should be allowed again")
	}
}
