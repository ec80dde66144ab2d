// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"time"

	"github.com/olegiv/folio-go/internal/model"
)

// ServicePackage is a priced tier of a service.
type ServicePackage struct {
	ID           int64
	ServiceID    int64
	Name         string
	Description  string
	Price        float64
	Features     model.StringList
	DeliveryTime string
	Revisions    int64
	IsPopular    bool
	SortOrder    int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

const packageColumns = `id, service_id, name, description, price, features, delivery_time, revisions,
	is_popular, sort_order, created_at, updated_at`

func scanServicePackage(row interface{ Scan(...any) error }) (ServicePackage, error) {
	var p ServicePackage
	err := row.Scan(&p.ID, &p.ServiceID, &p.Name, &p.Description, &p.Price, &p.Features,
		&p.DeliveryTime, &p.Revisions, &p.IsPopular, &p.SortOrder, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

// GetServicePackage returns package id belonging to serviceID.
func (q *Queries) GetServicePackage(ctx context.Context, serviceID, id int64) (ServicePackage, error) {
	return scanServicePackage(q.db.QueryRowContext(ctx,
		`SELECT `+packageColumns+` FROM service_packages WHERE id = ? AND service_id = ?`, id, serviceID))
}

// ListServicePackages returns the packages of serviceID in display order.
func (q *Queries) ListServicePackages(ctx context.Context, serviceID int64) ([]ServicePackage, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT `+packageColumns+` FROM service_packages
		WHERE service_id = ? ORDER BY sort_order ASC, price ASC, id ASC`, serviceID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	packages := []ServicePackage{}
	for rows.Next() {
		p, err := scanServicePackage(rows)
		if err != nil {
			return nil, err
		}
		packages = append(packages, p)
	}
	return packages, rows.Err()
}

// ServicePackageParams holds the writable columns of a package.
type ServicePackageParams struct {
	Name         string
	Description  string
	Price        float64
	Features     model.StringList
	DeliveryTime string
	Revisions    int64
	IsPopular    bool
	SortOrder    int64
}

// CreateServicePackage inserts a package under serviceID and returns its id.
func (q *Queries) CreateServicePackage(ctx context.Context, serviceID int64, arg ServicePackageParams, now time.Time) (int64, error) {
	return q.insertReturningID(ctx, `
		INSERT INTO service_packages (service_id, name, description, price, features, delivery_time, revisions,
			is_popular, sort_order, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		serviceID, arg.Name, arg.Description, arg.Price, arg.Features, arg.DeliveryTime, arg.Revisions,
		boolToInt(arg.IsPopular), arg.SortOrder, now, now)
}

// UpdateServicePackage overwrites package id of serviceID.
func (q *Queries) UpdateServicePackage(ctx context.Context, serviceID, id int64, arg ServicePackageParams, now time.Time) error {
	return q.execAffectingOne(ctx, `
		UPDATE service_packages SET name = ?, description = ?, price = ?, features = ?, delivery_time = ?,
			revisions = ?, is_popular = ?, sort_order = ?, updated_at = ?
		WHERE id = ? AND service_id = ?`,
		arg.Name, arg.Description, arg.Price, arg.Features, arg.DeliveryTime, arg.Revisions,
		boolToInt(arg.IsPopular), arg.SortOrder, now, id, serviceID)
}

// DeleteServicePackage removes package id of serviceID.
func (q *Queries) DeleteServicePackage(ctx context.Context, serviceID, id int64) error {
	return q.execAffectingOne(ctx,
		`DELETE FROM service_packages WHERE id = ? AND service_id = ?`, id, serviceID)
}

// DeleteServicePackages removes every package of serviceID.
func (q *Queries) DeleteServicePackages(ctx context.Context, serviceID int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM service_packages WHERE service_id = ?`, serviceID)
	return err
}
