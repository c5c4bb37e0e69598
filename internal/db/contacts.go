package db

import (
	"context"
	"time"

	"github.com/contacthub/backend/internal/model"
)

const contactColumns = `id, first_name, last_name, email, phone, birth_date, additional_info, user_id`

func (db *Postgres) CreateContact(ctx context.Context, c *model.Contact) (*model.Contact, error) {
	query := `
		INSERT INTO contacts (first_name, last_name, email, phone, birth_date, additional_info, user_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + contactColumns
	return db.scanContact(ctx, query,
		c.FirstName, c.LastName, c.Email, c.Phone, c.BirthDate, c.AdditionalInfo, c.UserID)
}

// ContactExists reports whether the user already has a contact with the given
// email or phone.
func (db *Postgres) ContactExists(ctx context.Context, userID int64, email, phone string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM contacts
			WHERE user_id = $1 AND (email = $2 OR phone = $3)
		)
	`
	var exists bool
	err := db.Pool.QueryRow(ctx, query, userID, email, phone).Scan(&exists)
	return exists, err
}

func (db *Postgres) GetContacts(ctx context.Context, userID int64, skip, limit int) ([]model.Contact, error) {
	query := `
		SELECT ` + contactColumns + `
		FROM contacts
		WHERE user_id = $1
		ORDER BY id
		OFFSET $2 LIMIT $3
	`
	return db.scanContacts(ctx, query, userID, skip, limit)
}

func (db *Postgres) GetContactByID(ctx context.Context, userID, contactID int64) (*model.Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts WHERE id = $1 AND user_id = $2`
	return db.scanContact(ctx, query, contactID, userID)
}

func (db *Postgres) UpdateContact(ctx context.Context, c *model.Contact) (*model.Contact, error) {
	query := `
		UPDATE contacts
		SET first_name = $3, last_name = $4, email = $5, phone = $6, birth_date = $7, additional_info = $8
		WHERE id = $1 AND user_id = $2
		RETURNING ` + contactColumns
	return db.scanContact(ctx, query,
		c.ID, c.UserID, c.FirstName, c.LastName, c.Email, c.Phone, c.BirthDate, c.AdditionalInfo)
}

func (db *Postgres) DeleteContact(ctx context.Context, userID, contactID int64) (bool, error) {
	query := `DELETE FROM contacts WHERE id = $1 AND user_id = $2`
	tag, err := db.Pool.Exec(ctx, query, contactID, userID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (db *Postgres) SearchContacts(ctx context.Context, userID int64, firstName, lastName, email string) ([]model.Contact, error) {
	query := `
		SELECT ` + contactColumns + `
		FROM contacts
		WHERE user_id = $1
		  AND ($2 = '' OR first_name ILIKE '%' || $2 || '%')
		  AND ($3 = '' OR last_name ILIKE '%' || $3 || '%')
		  AND ($4 = '' OR email ILIKE '%' || $4 || '%')
		ORDER BY id
	`
	return db.scanContacts(ctx, query, userID, firstName, lastName, email)
}

// GetUpcomingBirthdays matches the month/day window [today, today+7d]. The
// window may wrap a month boundary, hence the two-sided condition.
func (db *Postgres) GetUpcomingBirthdays(ctx context.Context, userID int64, today, nextWeek time.Time) ([]model.Contact, error) {
	query := `
		SELECT ` + contactColumns + `
		FROM contacts
		WHERE user_id = $1
		  AND (
			(EXTRACT(MONTH FROM birth_date) = $2 AND EXTRACT(DAY FROM birth_date) >= $3)
			OR
			(EXTRACT(MONTH FROM birth_date) = $4 AND EXTRACT(DAY FROM birth_date) <= $5)
		  )
		ORDER BY id
	`
	return db.scanContacts(ctx, query, userID,
		int(today.Month()), today.Day(), int(nextWeek.Month()), nextWeek.Day())
}

func (db *Postgres) scanContact(ctx context.Context, query string, args ...any) (*model.Contact, error) {
	var c model.Contact
	err := db.Pool.QueryRow(ctx, query, args...).Scan(
		&c.ID,
		&c.FirstName,
		&c.LastName,
		&c.Email,
		&c.Phone,
		&c.BirthDate,
		&c.AdditionalInfo,
		&c.UserID,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (db *Postgres) scanContacts(ctx context.Context, query string, args ...any) ([]model.Contact, error) {
	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	contacts := make([]model.Contact, 0)
	for rows.Next() {
		var c model.Contact
		if err := rows.Scan(
			&c.ID,
			&c.FirstName,
			&c.LastName,
			&c.Email,
			&c.Phone,
			&c.BirthDate,
			&c.AdditionalInfo,
			&c.UserID,
		); err != nil {
			return nil, err
		}
		contacts = append(contacts, c)
	}
	return contacts, rows.Err()
}
