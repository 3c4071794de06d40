package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/scanvault/scanvault/internal/common"
)

func TestMemoryStore_ExistsAfterPut(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()

	ok, err := m.Exists(ctx, AreaQuarantine, "u-1/a.jpg")
	if err != nil || ok {
		t.Fatalf("expected absent, got ok=%v err=%v", ok, err)
	}

	m.Put(AreaQuarantine, "u-1/a.jpg")

	ok, err = m.Exists(ctx, AreaQuarantine, "u-1/a.jpg")
	if err != nil || !ok {
		t.Fatalf("expected present, got ok=%v err=%v", ok, err)
	}
	// Areas are independent.
	ok, _ = m.Exists(ctx, AreaPermanent, "u-1/a.jpg")
	if ok {
		t.Fatal("object must not appear in the permanent area")
	}
}

func TestMemoryStore_Move(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()
	m.Put(AreaQuarantine, "u-1/a.jpg")

	if err := m.Move(ctx, "u-1/a.jpg", AreaQuarantine, AreaPermanent); err != nil {
		t.Fatalf("Move error: %v", err)
	}

	ok, _ := m.Exists(ctx, AreaQuarantine, "u-1/a.jpg")
	if ok {
		t.Fatal("object must be gone from quarantine")
	}
	ok, _ = m.Exists(ctx, AreaPermanent, "u-1/a.jpg")
	if !ok {
		t.Fatal("object must be present in permanent")
	}
}

func TestMemoryStore_MoveMissing(t *testing.T) {
	m := NewMemoryStore()
	err := m.Move(context.Background(), "u-1/missing.jpg", AreaQuarantine, AreaPermanent)
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("expected ErrorNotFound, got %v", err)
	}
}

func TestMemoryStore_FailWith(t *testing.T) {
	m := NewMemoryStore()
	boom := errors.New("backend down")
	m.FailWith = boom

	if _, err := m.Exists(context.Background(), AreaQuarantine, "k"); !errors.Is(err, boom) {
		t.Fatalf("expected injected error, got %v", err)
	}
	if _, err := m.PresignPut(context.Background(), AreaQuarantine, "k", time.Minute); !errors.Is(err, boom) {
		t.Fatalf("expected injected error, got %v", err)
	}
}

func TestMemoryStore_PresignURLsDifferByVerb(t *testing.T) {
	m := NewMemoryStore()
	put, err := m.PresignPut(context.Background(), AreaQuarantine, "u-1/a.jpg", time.Minute)
	if err != nil {
		t.Fatalf("PresignPut error: %v", err)
	}
	get, err := m.PresignGet(context.Background(), AreaPermanent, "u-1/a.jpg", time.Minute)
	if err != nil {
		t.Fatalf("PresignGet error: %v", err)
	}
	if put == get {
		t.Fatal("expected distinct URLs for put and get")
	}
}

func TestMemoryStore_PresignMintsFreshSignature(t *testing.T) {
	m := NewMemoryStore()
	first, err := m.PresignPut(context.Background(), AreaQuarantine, "u-1/a.jpg", time.Minute)
	if err != nil {
		t.Fatalf("PresignPut error: %v", err)
	}
	second, err := m.PresignPut(context.Background(), AreaQuarantine, "u-1/a.jpg", time.Minute)
	if err != nil {
		t.Fatalf("PresignPut error: %v", err)
	}
	if first == second {
		t.Fatal("expected a fresh signature per mint")
	}
}
