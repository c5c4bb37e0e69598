package service

import (
	"context"
	"time"

	"github.com/contacthub/backend/internal/db"
	"github.com/contacthub/backend/internal/model"
)

const birthDateLayout = "2006-01-02"

type ContactStore interface {
	CreateContact(ctx context.Context, c *model.Contact) (*model.Contact, error)
	ContactExists(ctx context.Context, userID int64, email, phone string) (bool, error)
	GetContacts(ctx context.Context, userID int64, skip, limit int) ([]model.Contact, error)
	GetContactByID(ctx context.Context, userID, contactID int64) (*model.Contact, error)
	UpdateContact(ctx context.Context, c *model.Contact) (*model.Contact, error)
	DeleteContact(ctx context.Context, userID, contactID int64) (bool, error)
	SearchContacts(ctx context.Context, userID int64, firstName, lastName, email string) ([]model.Contact, error)
	GetUpcomingBirthdays(ctx context.Context, userID int64, today, nextWeek time.Time) ([]model.Contact, error)
}

type ContactService struct {
	store ContactStore
}

func NewContactService(store ContactStore) *ContactService {
	return &ContactService{store: store}
}

func (s *ContactService) Create(ctx context.Context, user *model.User, req model.ContactCreateRequest) (*model.Contact, error) {
	birthDate, err := time.Parse(birthDateLayout, req.BirthDate)
	if err != nil {
		return nil, ErrInvalidBirthDate
	}

	exists, err := s.store.ContactExists(ctx, user.ID, req.Email, req.Phone)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrContactDuplicate
	}

	return s.store.CreateContact(ctx, &model.Contact{
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Email:          req.Email,
		Phone:          req.Phone,
		BirthDate:      birthDate,
		AdditionalInfo: req.AdditionalInfo,
		UserID:         user.ID,
	})
}

func (s *ContactService) List(ctx context.Context, user *model.User, skip, limit int) ([]model.Contact, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	if skip < 0 {
		skip = 0
	}
	return s.store.GetContacts(ctx, user.ID, skip, limit)
}

func (s *ContactService) Get(ctx context.Context, user *model.User, contactID int64) (*model.Contact, error) {
	contact, err := s.store.GetContactByID(ctx, user.ID, contactID)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrContactNotFound
		}
		return nil, err
	}
	return contact, nil
}

func (s *ContactService) Update(ctx context.Context, user *model.User, contactID int64, req model.ContactUpdateRequest) (*model.Contact, error) {
	contact, err := s.Get(ctx, user, contactID)
	if err != nil {
		return nil, err
	}

	if req.FirstName != nil {
		contact.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		contact.LastName = *req.LastName
	}
	if req.Email != nil {
		contact.Email = *req.Email
	}
	if req.Phone != nil {
		contact.Phone = *req.Phone
	}
	if req.BirthDate != nil {
		birthDate, err := time.Parse(birthDateLayout, *req.BirthDate)
		if err != nil {
			return nil, ErrInvalidBirthDate
		}
		contact.BirthDate = birthDate
	}
	if req.AdditionalInfo != nil {
		contact.AdditionalInfo = req.AdditionalInfo
	}

	updated, err := s.store.UpdateContact(ctx, contact)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrContactNotFound
		}
		return nil, err
	}
	return updated, nil
}

func (s *ContactService) Delete(ctx context.Context, user *model.User, contactID int64) error {
	deleted, err := s.store.DeleteContact(ctx, user.ID, contactID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrContactNotFound
	}
	return nil
}

func (s *ContactService) Search(ctx context.Context, user *model.User, firstName, lastName, email string) ([]model.Contact, error) {
	return s.store.SearchContacts(ctx, user.ID, firstName, lastName, email)
}

// UpcomingBirthdays lists contacts whose birthday falls within the next
// seven days.
func (s *ContactService) UpcomingBirthdays(ctx context.Context, user *model.User) ([]model.Contact, error) {
	today := time.Now()
	return s.store.GetUpcomingBirthdays(ctx, user.ID, today, today.AddDate(0, 0, 7))
}
