package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/codr1/Courtside/internal/models"
)

const reservationColumns = `id, user_id, court_id, coach_id, date, start_time, end_time, status,
	court_base_price, court_final_price, applied_rules, coach_fee, equipment_fee, total_price,
	notes, created_at, updated_at`

func scanReservation(row scanner) (models.Reservation, error) {
	var (
		r            models.Reservation
		coachID      sql.NullInt64
		date         string
		start, end   string
		appliedRules string
	)
	if err := row.Scan(
		&r.ID, &r.UserID, &r.CourtID, &coachID, &date, &start, &end, &r.Status,
		&r.Pricing.CourtBasePrice, &r.Pricing.CourtFinalPrice, &appliedRules,
		&r.Pricing.CoachFee, &r.Pricing.EquipmentFee, &r.Pricing.TotalPrice,
		&r.Notes, &r.CreatedAt, &r.UpdatedAt,
	); err != nil {
		return models.Reservation{}, err
	}
	if coachID.Valid {
		id := coachID.Int64
		r.CoachID = &id
	}
	var err error
	if r.Date, err = models.ParseDate(date); err != nil {
		return models.Reservation{}, fmt.Errorf("reservation %d date: %w", r.ID, err)
	}
	if r.Slot.Start, err = models.ParseTimeOfDay(start); err != nil {
		return models.Reservation{}, fmt.Errorf("reservation %d start: %w", r.ID, err)
	}
	if r.Slot.End, err = models.ParseTimeOfDay(end); err != nil {
		return models.Reservation{}, fmt.Errorf("reservation %d end: %w", r.ID, err)
	}
	if err := decodeJSON(appliedRules, &r.Pricing.AppliedRules); err != nil {
		return models.Reservation{}, fmt.Errorf("reservation %d applied rules: %w", r.ID, err)
	}
	if r.Pricing.AppliedRules == nil {
		r.Pricing.AppliedRules = []models.AppliedRule{}
	}
	r.Equipment = []models.EquipmentLine{}
	return r, nil
}

func nullableID(id *int64) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *id, Valid: true}
}

// CreateReservation inserts the reservation and its equipment lines. Lines
// with a quantity below one must be dropped by the caller.
func (q *Queries) CreateReservation(ctx context.Context, r models.Reservation) (models.Reservation, error) {
	if r.Pricing.AppliedRules == nil {
		r.Pricing.AppliedRules = []models.AppliedRule{}
	}
	appliedRules, err := encodeJSON(r.Pricing.AppliedRules)
	if err != nil {
		return models.Reservation{}, fmt.Errorf("encode applied rules: %w", err)
	}
	if r.Status == "" {
		r.Status = models.StatusConfirmed
	}
	now := time.Now().UTC()
	r.CreatedAt, r.UpdatedAt = now, now

	result, err := q.db.ExecContext(ctx,
		`INSERT INTO reservations (user_id, court_id, coach_id, date, start_time, end_time, status,
		 court_base_price, court_final_price, applied_rules, coach_fee, equipment_fee, total_price,
		 notes, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.UserID, r.CourtID, nullableID(r.CoachID), r.Date.String(), r.Slot.Start.String(), r.Slot.End.String(),
		r.Status, r.Pricing.CourtBasePrice, r.Pricing.CourtFinalPrice, appliedRules,
		r.Pricing.CoachFee, r.Pricing.EquipmentFee, r.Pricing.TotalPrice, r.Notes, now, now,
	)
	if err != nil {
		return models.Reservation{}, fmt.Errorf("insert reservation: %w", err)
	}
	r.ID, err = result.LastInsertId()
	if err != nil {
		return models.Reservation{}, fmt.Errorf("reservation id: %w", err)
	}

	for _, line := range r.Equipment {
		if _, err := q.db.ExecContext(ctx,
			`INSERT INTO reservation_equipment (reservation_id, equipment_id, quantity) VALUES (?, ?, ?)`,
			r.ID, line.EquipmentID, line.Quantity,
		); err != nil {
			return models.Reservation{}, fmt.Errorf("insert reservation equipment: %w", err)
		}
	}
	if r.Equipment == nil {
		r.Equipment = []models.EquipmentLine{}
	}
	return r, nil
}

func (q *Queries) GetReservation(ctx context.Context, id int64) (models.Reservation, error) {
	r, err := scanReservation(q.db.QueryRowContext(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE id = ?`, id))
	if err != nil {
		return models.Reservation{}, err
	}
	reservations := []models.Reservation{r}
	if err := q.attachEquipment(ctx, reservations); err != nil {
		return models.Reservation{}, err
	}
	return reservations[0], nil
}

type ReservationFilter struct {
	UserID  int64
	CourtID int64
	Status  models.ReservationStatus
	Date    models.Date
	// NewestFirst orders by creation time; otherwise by date and start time, latest first.
	NewestFirst bool
}

func (q *Queries) ListReservations(ctx context.Context, filter ReservationFilter) ([]models.Reservation, error) {
	w := &whereClause{}
	if filter.UserID != 0 {
		w.add("user_id = ?", filter.UserID)
	}
	if filter.CourtID != 0 {
		w.add("court_id = ?", filter.CourtID)
	}
	if filter.Status != "" {
		w.add("status = ?", filter.Status)
	}
	if !filter.Date.IsZero() {
		w.add("date = ?", filter.Date.String())
	}
	order := ` ORDER BY date DESC, start_time DESC, id DESC`
	if filter.NewestFirst {
		order = ` ORDER BY created_at DESC, id DESC`
	}
	return q.queryReservations(ctx, `SELECT `+reservationColumns+` FROM reservations`+w.String()+order, w.args...)
}

// ActiveReservationQuery selects non-cancelled reservations on one date.
// Zero-valued ids are not applied. Overlap is left to the caller.
type ActiveReservationQuery struct {
	Date        models.Date
	CourtID     int64
	CoachID     int64
	EquipmentID int64
	ExcludeID   int64
}

func (q *Queries) ListActiveReservations(ctx context.Context, query ActiveReservationQuery) ([]models.Reservation, error) {
	w := &whereClause{}
	w.add("date = ?", query.Date.String())
	w.add("status <> ?", models.StatusCancelled)
	if query.CourtID != 0 {
		w.add("court_id = ?", query.CourtID)
	}
	if query.CoachID != 0 {
		w.add("coach_id = ?", query.CoachID)
	}
	if query.EquipmentID != 0 {
		w.add("id IN (SELECT reservation_id FROM reservation_equipment WHERE equipment_id = ?)", query.EquipmentID)
	}
	if query.ExcludeID != 0 {
		w.add("id <> ?", query.ExcludeID)
	}
	return q.queryReservations(ctx, `SELECT `+reservationColumns+` FROM reservations`+w.String()+` ORDER BY start_time, id`, w.args...)
}

func (q *Queries) queryReservations(ctx context.Context, query string, args ...any) ([]models.Reservation, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	defer rows.Close()

	reservations := []models.Reservation{}
	for rows.Next() {
		r, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		reservations = append(reservations, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reservations: %w", err)
	}
	if err := q.attachEquipment(ctx, reservations); err != nil {
		return nil, err
	}
	return reservations, nil
}

func (q *Queries) attachEquipment(ctx context.Context, reservations []models.Reservation) error {
	if len(reservations) == 0 {
		return nil
	}
	ids := make([]any, len(reservations))
	index := make(map[int64]int, len(reservations))
	for i, r := range reservations {
		ids[i] = r.ID
		index[r.ID] = i
	}
	rows, err := q.db.QueryContext(ctx,
		`SELECT reservation_id, equipment_id, quantity FROM reservation_equipment
		 WHERE reservation_id IN (`+placeholders(len(ids))+`) ORDER BY rowid`,
		ids...,
	)
	if err != nil {
		return fmt.Errorf("list reservation equipment: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			reservationID int64
			line          models.EquipmentLine
		)
		if err := rows.Scan(&reservationID, &line.EquipmentID, &line.Quantity); err != nil {
			return fmt.Errorf("scan reservation equipment: %w", err)
		}
		if i, ok := index[reservationID]; ok {
			reservations[i].Equipment = append(reservations[i].Equipment, line)
		}
	}
	return rows.Err()
}

func (q *Queries) UpdateReservationStatus(ctx context.Context, id int64, status models.ReservationStatus) (int64, error) {
	result, err := q.db.ExecContext(ctx,
		`UPDATE reservations SET status = ?, updated_at = ? WHERE id = ?`,
		status, time.Now().UTC(), id,
	)
	if err != nil {
		return 0, fmt.Errorf("update reservation status: %w", err)
	}
	return rowsAffected(result, "update reservation status")
}

func (q *Queries) DeleteReservation(ctx context.Context, id int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, `DELETE FROM reservations WHERE id = ?`, id)
	if err != nil {
		return 0, fmt.Errorf("delete reservation: %w", err)
	}
	return rowsAffected(result, "delete reservation")
}

type CourtOccupancy struct {
	CourtID   int64  `json:"courtId"`
	CourtName string `json:"courtName"`
	Bookings  int64  `json:"bookings"`
}

type ReservationStats struct {
	TotalBookings  int64            `json:"totalBookings"`
	TodayBookings  int64            `json:"todayBookings"`
	TotalRevenue   float64          `json:"totalRevenue"`
	ActiveUsers    int64            `json:"activeUsers"`
	CourtOccupancy []CourtOccupancy `json:"courtOccupancy"`
}

// GetReservationStats aggregates non-cancelled reservations. TodayBookings
// counts reservations dated today or later.
func (q *Queries) GetReservationStats(ctx context.Context, today models.Date) (ReservationStats, error) {
	var stats ReservationStats
	if err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(total_price), 0), COUNT(DISTINCT user_id),
		 COALESCE(SUM(CASE WHEN date >= ? THEN 1 ELSE 0 END), 0)
		 FROM reservations WHERE status <> ?`,
		today.String(), models.StatusCancelled,
	).Scan(&stats.TotalBookings, &stats.TotalRevenue, &stats.ActiveUsers, &stats.TodayBookings); err != nil {
		return ReservationStats{}, fmt.Errorf("reservation totals: %w", err)
	}

	rows, err := q.db.QueryContext(ctx,
		`SELECT c.id, c.name, COUNT(r.id) AS bookings
		 FROM reservations r JOIN courts c ON c.id = r.court_id
		 WHERE r.status <> ?
		 GROUP BY c.id, c.name
		 ORDER BY bookings DESC, c.id ASC`,
		models.StatusCancelled,
	)
	if err != nil {
		return ReservationStats{}, fmt.Errorf("court occupancy: %w", err)
	}
	defer rows.Close()

	stats.CourtOccupancy = []CourtOccupancy{}
	for rows.Next() {
		var occupancy CourtOccupancy
		if err := rows.Scan(&occupancy.CourtID, &occupancy.CourtName, &occupancy.Bookings); err != nil {
			return ReservationStats{}, fmt.Errorf("scan court occupancy: %w", err)
		}
		stats.CourtOccupancy = append(stats.CourtOccupancy, occupancy)
	}
	return stats, rows.Err()
}
