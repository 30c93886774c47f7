package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mvachon/TeamRosterBack/internal/models"
	"github.com/shopspring/decimal"
)

func TestCreatePaymentRejectsNegativeAmount(t *testing.T) {
	service := NewPaymentService(nil, &stubTeamReader{
		team: &models.Team{ID: 3, OwnerID: 42},
	}, &stubPlayerReader{}, nil)

	_, err := service.CreatePayment(context.Background(), 42, 3, CreatePaymentInput{
		PlayerID:    1,
		Amount:      decimal.NewFromInt(-50),
		PaymentDate: time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for negative amount, got %v", err)
	}
}

func TestCreatePaymentRejectsZeroDate(t *testing.T) {
	service := NewPaymentService(nil, &stubTeamReader{
		team: &models.Team{ID: 3, OwnerID: 42},
	}, &stubPlayerReader{}, nil)

	_, err := service.CreatePayment(context.Background(), 42, 3, CreatePaymentInput{
		PlayerID: 1,
		Amount:   decimal.NewFromInt(100),
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for zero payment date, got %v", err)
	}
}

func TestCreatePaymentRequiresPositiveSessionCount(t *testing.T) {
	service := NewPaymentService(nil, &stubTeamReader{
		team: &models.Team{ID: 3, OwnerID: 42},
	}, &stubPlayerReader{}, nil)

	zero := 0
	for _, count := range []*int{nil, &zero} {
		_, err := service.CreatePayment(context.Background(), 42, 3, CreatePaymentInput{
			PlayerID:           1,
			Amount:             decimal.NewFromInt(100),
			PaymentDate:        time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
			AddPrepaidSessions: true,
			SessionCount:       count,
		})
		if !errors.Is(err, ErrInvalidSessionCount) {
			t.Fatalf("expected ErrInvalidSessionCount for count %v, got %v", count, err)
		}
	}
}

func TestCreatePaymentRejectsNonOwner(t *testing.T) {
	service := NewPaymentService(nil, &stubTeamReader{
		team: &models.Team{ID: 3, OwnerID: 42},
	}, &stubPlayerReader{}, nil)

	_, err := service.CreatePayment(context.Background(), 99, 3, CreatePaymentInput{
		PlayerID:    1,
		Amount:      decimal.NewFromInt(100),
		PaymentDate: time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
	})
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestCreatePaymentRejectsPlayerFromAnotherTeam(t *testing.T) {
	service := NewPaymentService(nil, &stubTeamReader{
		team: &models.Team{ID: 3, OwnerID: 42},
	}, &stubPlayerReader{
		players: []models.Player{{ID: 1, TeamID: 8, Name: "Sam"}},
	}, nil)

	_, err := service.CreatePayment(context.Background(), 42, 3, CreatePaymentInput{
		PlayerID:    1,
		Amount:      decimal.NewFromInt(100),
		PaymentDate: time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
	})
	if !errors.Is(err, ErrPlayerNotFound) {
		t.Fatalf("expected ErrPlayerNotFound, got %v", err)
	}
}
