package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"diamondpay/models"
)

// defaultPackages seeds the catalog on first read.
func defaultPackages() []*models.DiamondPackage {
	return []*models.DiamondPackage{
		{ID: "pkg-starter", Name: "Starter", DiamondAmount: 100, BonusDiamonds: 0, PriceUSD: 2.99, SortOrder: 1, IsActive: true},
		{ID: "pkg-popular", Name: "Popular", DiamondAmount: 500, BonusDiamonds: 50, PriceUSD: 12.99, SortOrder: 2, IsActive: true},
		{ID: "pkg-premium", Name: "Premium", DiamondAmount: 1000, BonusDiamonds: 200, PriceUSD: 24.99, SortOrder: 3, IsActive: true},
		{ID: "pkg-elite", Name: "Elite", DiamondAmount: 2500, BonusDiamonds: 750, PriceUSD: 49.99, SortOrder: 4, IsActive: true},
	}
}

// PackageStore manages the diamond package catalog, stored as a single JSON
// array. Packages are soft-deleted by deactivation so completed purchases can
// still resolve their package.
type PackageStore struct {
	rdb *redis.Client
}

// NewPackageStore creates a package store backed by Redis.
func NewPackageStore(rdb *redis.Client) *PackageStore {
	return &PackageStore{rdb: rdb}
}

// ListActive returns active packages sorted by sort order.
func (s *PackageStore) ListActive(ctx context.Context) ([]*models.DiamondPackage, error) {
	all, err := s.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	active := make([]*models.DiamondPackage, 0, len(all))
	for _, pkg := range all {
		if pkg.IsActive {
			active = append(active, pkg)
		}
	}
	sort.SliceStable(active, func(i, j int) bool { return active[i].SortOrder < active[j].SortOrder })
	return active, nil
}

// ListAll returns the full catalog, seeding the defaults on first read.
func (s *PackageStore) ListAll(ctx context.Context) ([]*models.DiamondPackage, error) {
	raw, err := s.rdb.Get(ctx, packagesKey).Result()
	if err == redis.Nil {
		pkgs := defaultPackages()
		if err := s.save(ctx, pkgs); err != nil {
			return nil, err
		}
		return pkgs, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get package catalog: %w", err)
	}

	var pkgs []*models.DiamondPackage
	if err := json.Unmarshal([]byte(raw), &pkgs); err != nil {
		return nil, &models.MalformedRecordError{Key: packagesKey, Err: err}
	}
	return pkgs, nil
}

// GetByID returns the package or ErrInvalidPackage when unknown.
func (s *PackageStore) GetByID(ctx context.Context, id string) (*models.DiamondPackage, error) {
	all, err := s.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	for _, pkg := range all {
		if pkg.ID == id {
			return pkg, nil
		}
	}
	return nil, models.ErrInvalidPackage
}

// Create adds a package to the catalog. New packages are active.
func (s *PackageStore) Create(ctx context.Context, pkg *models.DiamondPackage) (*models.DiamondPackage, error) {
	all, err := s.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	if pkg.ID == "" {
		pkg.ID = "pkg-" + uuid.NewString()
	}
	pkg.IsActive = true
	all = append(all, pkg)
	if err := s.save(ctx, all); err != nil {
		return nil, err
	}
	return pkg, nil
}

// Deactivate soft-deletes a package so it can no longer be purchased.
func (s *PackageStore) Deactivate(ctx context.Context, id string) error {
	all, err := s.ListAll(ctx)
	if err != nil {
		return err
	}
	for _, pkg := range all {
		if pkg.ID == id {
			pkg.IsActive = false
			return s.save(ctx, all)
		}
	}
	return models.ErrInvalidPackage
}

func (s *PackageStore) save(ctx context.Context, pkgs []*models.DiamondPackage) error {
	data, err := json.Marshal(pkgs)
	if err != nil {
		return fmt.Errorf("failed to marshal package catalog: %w", err)
	}
	if err := s.rdb.Set(ctx, packagesKey, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save package catalog: %w", err)
	}
	return nil
}
