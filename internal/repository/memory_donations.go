package repository

import (
	"context"
	"sort"
	"sync"

	"foodforward-data/internal/domain"
)

// MemoryDonationsRepo backs the donation/claim stores when DB is disabled (local
// dev and tests). Same conditional-update semantics as the Postgres implementation:
// status guards fail with ErrConflict, claim+status land together or not at all.
type MemoryDonationsRepo struct {
	mu        sync.RWMutex
	donations map[string]domain.Donation // donationID -> Donation
	claims    map[string]domain.Claim    // claimID -> Claim
}

func NewMemoryDonationsRepo() *MemoryDonationsRepo {
	return &MemoryDonationsRepo{
		donations: map[string]domain.Donation{},
		claims:    map[string]domain.Claim{},
	}
}

var _ DonationsRepository = (*MemoryDonationsRepo)(nil)
var _ ClaimsRepository = (*MemoryDonationsRepo)(nil)

func (r *MemoryDonationsRepo) CreateDonation(_ context.Context, donation *domain.Donation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.donations[donation.DonationID] = *donation
	return nil
}

func (r *MemoryDonationsRepo) GetDonation(_ context.Context, donationID string) (*domain.Donation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.donations[donationID]
	if !ok {
		return nil, ErrNotFound
	}
	return &d, nil
}

func (r *MemoryDonationsRepo) ListDonations(_ context.Context, filter DonationFilter) ([]domain.Donation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var all []domain.Donation
	for _, d := range r.donations {
		if filter.Status != "" && d.Status != filter.Status {
			continue
		}
		if filter.Category != "" && d.Category != filter.Category {
			continue
		}
		if filter.DonorID != "" && d.DonorID != filter.DonorID {
			continue
		}
		if filter.RecipientID != "" && d.RecipientID != filter.RecipientID {
			continue
		}
		if filter.VolunteerID != "" && d.VolunteerID != filter.VolunteerID {
			continue
		}
		all = append(all, d)
	}
	// newest first, id as tiebreaker for deterministic test output
	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].DonationID < all[j].DonationID
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	if filter.Limit > 0 && len(all) > filter.Limit {
		all = all[:filter.Limit]
	}
	return all, nil
}

func (r *MemoryDonationsRepo) ApplyClaim(_ context.Context, claim *domain.Claim, update ClaimUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.donations[claim.DonationID]
	if !ok {
		return ErrNotFound
	}
	if d.Status != domain.DonationAvailable {
		// guard failed: the claim record is not written either
		return ErrConflict
	}

	r.claims[claim.ClaimID] = *claim

	d.Status = domain.DonationClaimed
	d.RecipientID = update.RecipientID
	d.RecipientName = update.RecipientName
	d.RecipientEmail = update.RecipientEmail
	d.RecipientPhone = update.RecipientPhone
	d.RecipientOrganization = update.RecipientOrganization
	d.IntendedUse = update.IntendedUse
	d.EstimatedBeneficiaries = update.EstimatedBeneficiaries
	at := update.ClaimedAt
	d.ClaimedAt = &at
	d.UpdatedAt = update.ClaimedAt
	r.donations[d.DonationID] = d

	return nil
}

func (r *MemoryDonationsRepo) AssignVolunteer(_ context.Context, donationID string, update AssignUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.donations[donationID]
	if !ok {
		return ErrNotFound
	}
	if d.Status != domain.DonationClaimed || d.VolunteerID != "" {
		return ErrConflict
	}

	d.Status = domain.DonationAssigned
	d.VolunteerID = update.VolunteerID
	d.VolunteerName = update.VolunteerName
	d.VolunteerEmail = update.VolunteerEmail
	d.VolunteerPhone = update.VolunteerPhone
	at := update.AssignedAt
	d.AssignedAt = &at
	d.UpdatedAt = update.AssignedAt
	r.donations[donationID] = d

	return nil
}

func (r *MemoryDonationsRepo) CompleteDonation(_ context.Context, donationID, expectedStatus string, update CompleteUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.donations[donationID]
	if !ok {
		return ErrNotFound
	}
	if d.Status != expectedStatus {
		return ErrConflict
	}

	d.Status = domain.DonationCompleted
	d.CompletionNotes = update.Notes
	at := update.CompletedAt
	d.CompletedAt = &at
	d.UpdatedAt = update.CompletedAt
	r.donations[donationID] = d

	return nil
}

func (r *MemoryDonationsRepo) DeleteDonation(_ context.Context, donationID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.donations[donationID]; !ok {
		return ErrNotFound
	}
	// claims are intentionally left behind (no cascade)
	delete(r.donations, donationID)
	return nil
}

func (r *MemoryDonationsRepo) BulkUpdateStatus(_ context.Context, donationIDs []string, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// all-or-nothing: verify every id first
	for _, id := range donationIDs {
		if _, ok := r.donations[id]; !ok {
			return ErrConflict
		}
	}
	for _, id := range donationIDs {
		d := r.donations[id]
		d.Status = status
		r.donations[id] = d
	}
	return nil
}

func (r *MemoryDonationsRepo) BulkDeleteDonations(_ context.Context, donationIDs []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, id := range donationIDs {
		if _, ok := r.donations[id]; !ok {
			return ErrConflict
		}
	}
	for _, id := range donationIDs {
		delete(r.donations, id)
	}
	return nil
}

// ---- ClaimsRepository ----

func (r *MemoryDonationsRepo) GetClaim(_ context.Context, claimID string) (*domain.Claim, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.claims[claimID]
	if !ok {
		return nil, ErrNotFound
	}
	return &c, nil
}

func (r *MemoryDonationsRepo) ListClaimsByDonor(_ context.Context, donorID string) ([]domain.Claim, error) {
	return r.listClaims(func(c domain.Claim) bool { return c.DonorID == donorID })
}

func (r *MemoryDonationsRepo) ListClaimsByRecipient(_ context.Context, recipientID string) ([]domain.Claim, error) {
	return r.listClaims(func(c domain.Claim) bool { return c.RecipientID == recipientID })
}

func (r *MemoryDonationsRepo) ListClaimsByDonation(_ context.Context, donationID string) ([]domain.Claim, error) {
	return r.listClaims(func(c domain.Claim) bool { return c.DonationID == donationID })
}

func (r *MemoryDonationsRepo) listClaims(match func(domain.Claim) bool) ([]domain.Claim, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var all []domain.Claim
	for _, c := range r.claims {
		if match(c) {
			all = append(all, c)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ClaimID < all[j].ClaimID
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	return all, nil
}
