package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/codr1/Courtside/internal/models"
)

const waitlistColumns = `id, user_id, court_id, date, start_time, end_time, status, notified_at, created_at, updated_at`

func scanWaitlistEntry(row scanner) (models.WaitlistEntry, error) {
	var (
		entry      models.WaitlistEntry
		date       string
		start, end string
		notifiedAt sql.NullTime
	)
	if err := row.Scan(
		&entry.ID, &entry.UserID, &entry.CourtID, &date, &start, &end, &entry.Status,
		&notifiedAt, &entry.CreatedAt, &entry.UpdatedAt,
	); err != nil {
		return models.WaitlistEntry{}, err
	}
	var err error
	if entry.Date, err = models.ParseDate(date); err != nil {
		return models.WaitlistEntry{}, fmt.Errorf("waitlist entry %d date: %w", entry.ID, err)
	}
	if entry.Slot.Start, err = models.ParseTimeOfDay(start); err != nil {
		return models.WaitlistEntry{}, fmt.Errorf("waitlist entry %d start: %w", entry.ID, err)
	}
	if entry.Slot.End, err = models.ParseTimeOfDay(end); err != nil {
		return models.WaitlistEntry{}, fmt.Errorf("waitlist entry %d end: %w", entry.ID, err)
	}
	if notifiedAt.Valid {
		t := notifiedAt.Time
		entry.NotifiedAt = &t
	}
	return entry, nil
}

func (q *Queries) CreateWaitlistEntry(ctx context.Context, entry models.WaitlistEntry) (models.WaitlistEntry, error) {
	now := time.Now().UTC()
	entry.Status = models.WaitlistWaiting
	entry.NotifiedAt = nil
	entry.CreatedAt, entry.UpdatedAt = now, now
	result, err := q.db.ExecContext(ctx,
		`INSERT INTO waitlist_entries (user_id, court_id, date, start_time, end_time, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.UserID, entry.CourtID, entry.Date.String(), entry.Slot.Start.String(), entry.Slot.End.String(),
		entry.Status, now, now,
	)
	if err != nil {
		return models.WaitlistEntry{}, fmt.Errorf("insert waitlist entry: %w", err)
	}
	entry.ID, err = result.LastInsertId()
	if err != nil {
		return models.WaitlistEntry{}, fmt.Errorf("waitlist entry id: %w", err)
	}
	return entry, nil
}

func (q *Queries) GetWaitlistEntry(ctx context.Context, id int64) (models.WaitlistEntry, error) {
	return scanWaitlistEntry(q.db.QueryRowContext(ctx, `SELECT `+waitlistColumns+` FROM waitlist_entries WHERE id = ?`, id))
}

// HasWaitingEntry reports whether the user already waits for the exact slot.
func (q *Queries) HasWaitingEntry(ctx context.Context, userID, courtID int64, date models.Date, slot models.Slot) (bool, error) {
	var exists bool
	err := q.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM waitlist_entries
		 WHERE user_id = ? AND court_id = ? AND date = ? AND start_time = ? AND end_time = ? AND status = ?)`,
		userID, courtID, date.String(), slot.Start.String(), slot.End.String(), models.WaitlistWaiting,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check waitlist entry: %w", err)
	}
	return exists, nil
}

// FirstWaitingEntry returns the earliest waiting entry for the exact slot, or
// sql.ErrNoRows when nobody is waiting.
func (q *Queries) FirstWaitingEntry(ctx context.Context, courtID int64, date models.Date, slot models.Slot) (models.WaitlistEntry, error) {
	return scanWaitlistEntry(q.db.QueryRowContext(ctx,
		`SELECT `+waitlistColumns+` FROM waitlist_entries
		 WHERE court_id = ? AND date = ? AND start_time = ? AND end_time = ? AND status = ?
		 ORDER BY created_at ASC, id ASC
		 LIMIT 1`,
		courtID, date.String(), slot.Start.String(), slot.End.String(), models.WaitlistWaiting,
	))
}

// MarkWaitlistNotified moves a waiting entry to notified. It affects no rows
// when the entry has already left the waiting state.
func (q *Queries) MarkWaitlistNotified(ctx context.Context, id int64, at time.Time) (int64, error) {
	result, err := q.db.ExecContext(ctx,
		`UPDATE waitlist_entries SET status = ?, notified_at = ?, updated_at = ? WHERE id = ? AND status = ?`,
		models.WaitlistNotified, at.UTC(), at.UTC(), id, models.WaitlistWaiting,
	)
	if err != nil {
		return 0, fmt.Errorf("mark waitlist notified: %w", err)
	}
	return rowsAffected(result, "mark waitlist notified")
}

func (q *Queries) ListWaitlistEntriesForUser(ctx context.Context, userID int64) ([]models.WaitlistEntry, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+waitlistColumns+` FROM waitlist_entries WHERE user_id = ? ORDER BY date DESC, start_time DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list waitlist entries: %w", err)
	}
	defer rows.Close()

	entries := []models.WaitlistEntry{}
	for rows.Next() {
		entry, err := scanWaitlistEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan waitlist entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// ExpireWaitlistEntries expires waiting and notified entries whose slot
// started before now. Dates and times are compared as text, which orders
// correctly for zero-padded values.
func (q *Queries) ExpireWaitlistEntries(ctx context.Context, now time.Time) (int64, error) {
	today := models.DateOf(now)
	nowTime := models.At(now.Hour(), now.Minute())
	result, err := q.db.ExecContext(ctx,
		`UPDATE waitlist_entries SET status = ?, updated_at = ?
		 WHERE status IN (?, ?) AND (date < ? OR (date = ? AND start_time <= ?))`,
		models.WaitlistExpired, now.UTC(),
		models.WaitlistWaiting, models.WaitlistNotified,
		today.String(), today.String(), nowTime.String(),
	)
	if err != nil {
		return 0, fmt.Errorf("expire waitlist entries: %w", err)
	}
	return rowsAffected(result, "expire waitlist entries")
}
