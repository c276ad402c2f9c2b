package db

import (
	"context"
	"fmt"
	"time"

	"github.com/codr1/Courtside/internal/models"
)

type CatalogFilter struct {
	Category string
	Active   *bool
}

func (f CatalogFilter) where() *whereClause {
	w := &whereClause{}
	if f.Category != "" {
		w.add("category = ?", f.Category)
	}
	if f.Active != nil {
		w.add("is_active = ?", *f.Active)
	}
	return w
}

const userColumns = `id, name, email, phone, role, created_at`

func (q *Queries) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	if user.Role == "" {
		user.Role = models.RoleUser
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	result, err := q.db.ExecContext(ctx,
		`INSERT INTO users (name, email, phone, role, created_at) VALUES (?, ?, ?, ?, ?)`,
		user.Name, user.Email, user.Phone, user.Role, user.CreatedAt,
	)
	if err != nil {
		return models.User{}, fmt.Errorf("insert user: %w", err)
	}
	user.ID, err = result.LastInsertId()
	if err != nil {
		return models.User{}, fmt.Errorf("user id: %w", err)
	}
	return user, nil
}

func (q *Queries) GetUserByID(ctx context.Context, id int64) (models.User, error) {
	var user models.User
	err := q.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id).Scan(
		&user.ID, &user.Name, &user.Email, &user.Phone, &user.Role, &user.CreatedAt,
	)
	return user, err
}

const courtColumns = `id, name, category, base_price, is_active, description, features, created_at, updated_at`

func scanCourt(row scanner) (models.Court, error) {
	var (
		court    models.Court
		features string
	)
	if err := row.Scan(
		&court.ID, &court.Name, &court.Category, &court.BasePrice, &court.Active,
		&court.Description, &features, &court.CreatedAt, &court.UpdatedAt,
	); err != nil {
		return models.Court{}, err
	}
	if err := decodeJSON(features, &court.Features); err != nil {
		return models.Court{}, fmt.Errorf("decode court features: %w", err)
	}
	return court, nil
}

func (q *Queries) CreateCourt(ctx context.Context, court models.Court) (models.Court, error) {
	now := time.Now().UTC()
	court.CreatedAt, court.UpdatedAt = now, now
	if court.Features == nil {
		court.Features = []string{}
	}
	features, err := encodeJSON(court.Features)
	if err != nil {
		return models.Court{}, fmt.Errorf("encode court features: %w", err)
	}
	result, err := q.db.ExecContext(ctx,
		`INSERT INTO courts (name, category, base_price, is_active, description, features, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		court.Name, court.Category, court.BasePrice, court.Active, court.Description, features, now, now,
	)
	if err != nil {
		return models.Court{}, fmt.Errorf("insert court: %w", err)
	}
	court.ID, err = result.LastInsertId()
	if err != nil {
		return models.Court{}, fmt.Errorf("court id: %w", err)
	}
	return court, nil
}

func (q *Queries) GetCourt(ctx context.Context, id int64) (models.Court, error) {
	return scanCourt(q.db.QueryRowContext(ctx, `SELECT `+courtColumns+` FROM courts WHERE id = ?`, id))
}

func (q *Queries) ListCourts(ctx context.Context, filter CatalogFilter) ([]models.Court, error) {
	w := filter.where()
	rows, err := q.db.QueryContext(ctx, `SELECT `+courtColumns+` FROM courts`+w.String()+` ORDER BY name, id`, w.args...)
	if err != nil {
		return nil, fmt.Errorf("list courts: %w", err)
	}
	defer rows.Close()

	courts := []models.Court{}
	for rows.Next() {
		court, err := scanCourt(rows)
		if err != nil {
			return nil, fmt.Errorf("scan court: %w", err)
		}
		courts = append(courts, court)
	}
	return courts, rows.Err()
}

// UpdateCourt returns the number of rows changed; zero means the court does not exist.
func (q *Queries) UpdateCourt(ctx context.Context, court models.Court) (int64, error) {
	if court.Features == nil {
		court.Features = []string{}
	}
	features, err := encodeJSON(court.Features)
	if err != nil {
		return 0, fmt.Errorf("encode court features: %w", err)
	}
	result, err := q.db.ExecContext(ctx,
		`UPDATE courts SET name = ?, category = ?, base_price = ?, is_active = ?, description = ?, features = ?, updated_at = ?
		 WHERE id = ?`,
		court.Name, court.Category, court.BasePrice, court.Active, court.Description, features, time.Now().UTC(), court.ID,
	)
	if err != nil {
		return 0, fmt.Errorf("update court: %w", err)
	}
	return rowsAffected(result, "update court")
}

func (q *Queries) DeleteCourt(ctx context.Context, id int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, `DELETE FROM courts WHERE id = ?`, id)
	if err != nil {
		return 0, fmt.Errorf("delete court: %w", err)
	}
	return rowsAffected(result, "delete court")
}

const coachColumns = `id, name, email, phone, specialization, hourly_rate, bio, experience, is_active, availability, created_at, updated_at`

func scanCoach(row scanner) (models.Coach, error) {
	var (
		coach        models.Coach
		availability string
	)
	if err := row.Scan(
		&coach.ID, &coach.Name, &coach.Email, &coach.Phone, &coach.Specialization, &coach.HourlyRate,
		&coach.Bio, &coach.Experience, &coach.Active, &availability, &coach.CreatedAt, &coach.UpdatedAt,
	); err != nil {
		return models.Coach{}, err
	}
	if err := decodeJSON(availability, &coach.Availability); err != nil {
		return models.Coach{}, fmt.Errorf("decode coach availability: %w", err)
	}
	return coach, nil
}

func (q *Queries) CreateCoach(ctx context.Context, coach models.Coach) (models.Coach, error) {
	now := time.Now().UTC()
	coach.CreatedAt, coach.UpdatedAt = now, now
	if coach.Availability == nil {
		coach.Availability = []models.AvailabilityWindow{}
	}
	availability, err := encodeJSON(coach.Availability)
	if err != nil {
		return models.Coach{}, fmt.Errorf("encode coach availability: %w", err)
	}
	result, err := q.db.ExecContext(ctx,
		`INSERT INTO coaches (name, email, phone, specialization, hourly_rate, bio, experience, is_active, availability, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		coach.Name, coach.Email, coach.Phone, coach.Specialization, coach.HourlyRate, coach.Bio,
		coach.Experience, coach.Active, availability, now, now,
	)
	if err != nil {
		return models.Coach{}, fmt.Errorf("insert coach: %w", err)
	}
	coach.ID, err = result.LastInsertId()
	if err != nil {
		return models.Coach{}, fmt.Errorf("coach id: %w", err)
	}
	return coach, nil
}

func (q *Queries) GetCoach(ctx context.Context, id int64) (models.Coach, error) {
	return scanCoach(q.db.QueryRowContext(ctx, `SELECT `+coachColumns+` FROM coaches WHERE id = ?`, id))
}

func (q *Queries) ListCoaches(ctx context.Context, filter CatalogFilter) ([]models.Coach, error) {
	w := &whereClause{}
	if filter.Active != nil {
		w.add("is_active = ?", *filter.Active)
	}
	rows, err := q.db.QueryContext(ctx, `SELECT `+coachColumns+` FROM coaches`+w.String()+` ORDER BY name, id`, w.args...)
	if err != nil {
		return nil, fmt.Errorf("list coaches: %w", err)
	}
	defer rows.Close()

	coaches := []models.Coach{}
	for rows.Next() {
		coach, err := scanCoach(rows)
		if err != nil {
			return nil, fmt.Errorf("scan coach: %w", err)
		}
		coaches = append(coaches, coach)
	}
	return coaches, rows.Err()
}

func (q *Queries) UpdateCoach(ctx context.Context, coach models.Coach) (int64, error) {
	if coach.Availability == nil {
		coach.Availability = []models.AvailabilityWindow{}
	}
	availability, err := encodeJSON(coach.Availability)
	if err != nil {
		return 0, fmt.Errorf("encode coach availability: %w", err)
	}
	result, err := q.db.ExecContext(ctx,
		`UPDATE coaches SET name = ?, email = ?, phone = ?, specialization = ?, hourly_rate = ?, bio = ?,
		 experience = ?, is_active = ?, availability = ?, updated_at = ? WHERE id = ?`,
		coach.Name, coach.Email, coach.Phone, coach.Specialization, coach.HourlyRate, coach.Bio,
		coach.Experience, coach.Active, availability, time.Now().UTC(), coach.ID,
	)
	if err != nil {
		return 0, fmt.Errorf("update coach: %w", err)
	}
	return rowsAffected(result, "update coach")
}

func (q *Queries) DeleteCoach(ctx context.Context, id int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, `DELETE FROM coaches WHERE id = ?`, id)
	if err != nil {
		return 0, fmt.Errorf("delete coach: %w", err)
	}
	return rowsAffected(result, "delete coach")
}

const equipmentColumns = `id, name, category, total_quantity, price_per_hour, is_active, description, created_at, updated_at`

func scanEquipment(row scanner) (models.Equipment, error) {
	var item models.Equipment
	err := row.Scan(
		&item.ID, &item.Name, &item.Category, &item.TotalQuantity, &item.PricePerHour,
		&item.Active, &item.Description, &item.CreatedAt, &item.UpdatedAt,
	)
	return item, err
}

func (q *Queries) CreateEquipment(ctx context.Context, item models.Equipment) (models.Equipment, error) {
	now := time.Now().UTC()
	item.CreatedAt, item.UpdatedAt = now, now
	result, err := q.db.ExecContext(ctx,
		`INSERT INTO equipment (name, category, total_quantity, price_per_hour, is_active, description, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		item.Name, item.Category, item.TotalQuantity, item.PricePerHour, item.Active, item.Description, now, now,
	)
	if err != nil {
		return models.Equipment{}, fmt.Errorf("insert equipment: %w", err)
	}
	item.ID, err = result.LastInsertId()
	if err != nil {
		return models.Equipment{}, fmt.Errorf("equipment id: %w", err)
	}
	return item, nil
}

func (q *Queries) GetEquipment(ctx context.Context, id int64) (models.Equipment, error) {
	return scanEquipment(q.db.QueryRowContext(ctx, `SELECT `+equipmentColumns+` FROM equipment WHERE id = ?`, id))
}

func (q *Queries) ListEquipment(ctx context.Context, filter CatalogFilter) ([]models.Equipment, error) {
	w := filter.where()
	rows, err := q.db.QueryContext(ctx, `SELECT `+equipmentColumns+` FROM equipment`+w.String()+` ORDER BY name, id`, w.args...)
	if err != nil {
		return nil, fmt.Errorf("list equipment: %w", err)
	}
	defer rows.Close()

	items := []models.Equipment{}
	for rows.Next() {
		item, err := scanEquipment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan equipment: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (q *Queries) UpdateEquipment(ctx context.Context, item models.Equipment) (int64, error) {
	result, err := q.db.ExecContext(ctx,
		`UPDATE equipment SET name = ?, category = ?, total_quantity = ?, price_per_hour = ?, is_active = ?,
		 description = ?, updated_at = ? WHERE id = ?`,
		item.Name, item.Category, item.TotalQuantity, item.PricePerHour, item.Active, item.Description,
		time.Now().UTC(), item.ID,
	)
	if err != nil {
		return 0, fmt.Errorf("update equipment: %w", err)
	}
	return rowsAffected(result, "update equipment")
}

func (q *Queries) DeleteEquipment(ctx context.Context, id int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, `DELETE FROM equipment WHERE id = ?`, id)
	if err != nil {
		return 0, fmt.Errorf("delete equipment: %w", err)
	}
	return rowsAffected(result, "delete equipment")
}
