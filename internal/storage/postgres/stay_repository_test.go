package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/COCO0911/staybooking-project/internal/domain"
	"github.com/COCO0911/staybooking-project/internal/testutil"
)

func TestStayRepository(t *testing.T) {
	pool := testutil.NewTestPool(t)
	repo := NewStayRepository(pool)
	testutil.ApplyMigrations(t, context.Background(), pool)

	t.Run("Create assigns ID and preserves image order", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)

		stay, err := repo.Create(ctx, domain.Stay{
			Name:        "Lakeside Cabin",
			Address:     "1 Lake Rd",
			Description: "quiet cabin",
			GuestNumber: 4,
			Host:        "alice",
			Images:      []string{"https://img/3", "https://img/1", "https://img/2"},
		})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if stay.ID == "" {
			t.Fatalf("expected assigned ID")
		}
		if stay.CreatedAt.IsZero() {
			t.Fatalf("expected assigned created_at")
		}

		got, err := repo.FindByIDAndOwner(ctx, stay.ID, "alice")
		if err != nil {
			t.Fatalf("find: %v", err)
		}
		want := []string{"https://img/3", "https://img/1", "https://img/2"}
		if len(got.Images) != len(want) {
			t.Fatalf("expected %d images, got %d", len(want), len(got.Images))
		}
		for i := range want {
			if got.Images[i] != want[i] {
				t.Fatalf("image %d: expected %s, got %s", i, want[i], got.Images[i])
			}
		}
	})

	t.Run("FindByIDAndOwner hides foreign stays", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		stayID := testutil.InsertStay(t, ctx, pool, domain.Stay{
			Name: "Cabin", Address: "1 Lake Rd", GuestNumber: 2, Host: "alice",
		})

		if _, err := repo.FindByIDAndOwner(ctx, stayID, "bob"); err != domain.ErrStayNotFound {
			t.Fatalf("expected ErrStayNotFound for foreign owner, got %v", err)
		}
		if _, err := repo.FindByIDAndOwner(ctx, "00000000-0000-0000-0000-000000000001", "alice"); err != domain.ErrStayNotFound {
			t.Fatalf("expected ErrStayNotFound for missing stay, got %v", err)
		}
		if _, err := repo.FindByIDAndOwner(ctx, "not-a-uuid", "alice"); err != domain.ErrInvalidID {
			t.Fatalf("expected ErrInvalidID, got %v", err)
		}
	})

	t.Run("FindByOwner returns only the owner's stays", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		testutil.InsertStay(t, ctx, pool, domain.Stay{Name: "A", Address: "addr", GuestNumber: 1, Host: "alice"})
		testutil.InsertStay(t, ctx, pool, domain.Stay{Name: "B", Address: "addr", GuestNumber: 1, Host: "bob"})
		testutil.InsertStay(t, ctx, pool, domain.Stay{Name: "C", Address: "addr", GuestNumber: 1, Host: "alice"})

		stays, err := repo.FindByOwner(ctx, "alice")
		if err != nil {
			t.Fatalf("find by owner: %v", err)
		}
		if len(stays) != 2 {
			t.Fatalf("expected 2 stays, got %d", len(stays))
		}
		for _, s := range stays {
			if s.Host != "alice" {
				t.Fatalf("unexpected stay: %+v", s)
			}
			if s.Images == nil {
				t.Fatalf("expected empty image slice, got nil")
			}
		}
	})

	t.Run("DeleteByID removes the stay and cascades its rows", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		stayID := testutil.InsertStay(t, ctx, pool, domain.Stay{
			Name: "Cabin", Address: "1 Lake Rd", GuestNumber: 2, Host: "alice",
			Images: []string{"https://img/1"},
		})
		past := time.Now().AddDate(0, 0, -10)
		testutil.InsertReservation(t, ctx, pool, stayID, "carol", past, past.AddDate(0, 0, 2))

		err := repo.WithSerializableTx(ctx, func(txCtx context.Context) error {
			return repo.DeleteByID(txCtx, stayID)
		})
		if err != nil {
			t.Fatalf("delete: %v", err)
		}

		if _, err := repo.FindByIDAndOwner(ctx, stayID, "alice"); err != domain.ErrStayNotFound {
			t.Fatalf("expected stay gone, got %v", err)
		}
		var count int
		if err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM reservations WHERE stay_id = $1`, stayID).Scan(&count); err != nil {
			t.Fatalf("count reservations: %v", err)
		}
		if count != 0 {
			t.Fatalf("expected cascaded reservations, got %d", count)
		}

		if err := repo.DeleteByID(ctx, stayID); err != domain.ErrStayNotFound {
			t.Fatalf("expected ErrStayNotFound on second delete, got %v", err)
		}
	})
}

// TestStayRepository_DeleteVsReservationInsert drives the race the delete
// path must survive: a reservation committing between the delete
// transaction's check and its delete. The serializable transaction must
// abort, leaving both the stay and the reservation intact.
func TestStayRepository_DeleteVsReservationInsert(t *testing.T) {
	pool := testutil.NewTestPool(t)
	stayRepo := NewStayRepository(pool)
	resRepo := NewReservationRepository(pool)
	testutil.ApplyMigrations(t, context.Background(), pool)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	testutil.TruncateAll(t, ctx, pool)

	stayID := testutil.InsertStay(t, ctx, pool, domain.Stay{
		Name: "Cabin", Address: "1 Lake Rd", GuestNumber: 2, Host: "alice",
	})
	today := time.Now().UTC().Truncate(24 * time.Hour)

	checked := make(chan struct{})
	inserted := make(chan struct{})
	deleteErr := make(chan error, 1)

	go func() {
		deleteErr <- stayRepo.WithSerializableTx(ctx, func(txCtx context.Context) error {
			active, err := resRepo.FindByStayAndCheckoutAfter(txCtx, stayID, today)
			if err != nil {
				return err
			}
			if len(active) != 0 {
				t.Errorf("expected no active reservations at check time, got %d", len(active))
			}
			close(checked)
			<-inserted
			return stayRepo.DeleteByID(txCtx, stayID)
		})
	}()

	<-checked
	// Commit a conflicting reservation from outside the transaction.
	testutil.InsertReservation(t, ctx, pool, stayID, "carol", today.AddDate(0, 0, 1), today.AddDate(0, 0, 7))
	close(inserted)

	err := <-deleteErr
	if err == nil {
		t.Fatalf("expected the delete transaction to abort")
	}
	if !errors.Is(err, domain.ErrStoreContention) {
		t.Fatalf("expected ErrStoreContention, got %v", err)
	}

	// The invariant: no live reservation ever references a deleted stay.
	var stayCount, resCount int
	if err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM stays WHERE id = $1`, stayID).Scan(&stayCount); err != nil {
		t.Fatalf("count stays: %v", err)
	}
	if err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM reservations WHERE stay_id = $1`, stayID).Scan(&resCount); err != nil {
		t.Fatalf("count reservations: %v", err)
	}
	if stayCount != 1 || resCount != 1 {
		t.Fatalf("expected stay and reservation to survive, got stays=%d reservations=%d", stayCount, resCount)
	}
}
