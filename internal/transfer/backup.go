package transfer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/erazemk/gudang/internal/apperr"
	"github.com/erazemk/gudang/internal/model"
)

// BackupVersion is the version written by Export.
const BackupVersion = 1

// BackupUser is a user as stored in a backup. Unlike model.User it keeps the
// stored password so accounts survive a restore.
type BackupUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// Backup is a full export of the four collections.
type Backup struct {
	Version    int              `json:"version"`
	ExportedAt time.Time        `json:"exported_at"`
	Items      []model.Item     `json:"items"`
	Locations  []model.Location `json:"locations"`
	Users      []BackupUser     `json:"users"`
	Branding   model.Branding   `json:"branding"`
}

// Export builds a backup from a snapshot. The built-in admin is left out.
func Export(s model.Snapshot, now time.Time) Backup {
	b := Backup{
		Version:    BackupVersion,
		ExportedAt: now.UTC(),
		Items:      s.Items,
		Locations:  s.Locations,
		Users:      []BackupUser{},
		Branding:   s.Branding,
	}
	for _, u := range s.Users {
		if u.IsFallback() {
			continue
		}
		b.Users = append(b.Users, BackupUser(u))
	}
	return b
}

// DecodeBackup reads a backup and checks its version.
func DecodeBackup(r io.Reader) (*Backup, error) {
	var b Backup
	if err := json.NewDecoder(r).Decode(&b); err != nil {
		return nil, apperr.Backend(apperr.ErrInvalidField, "backup is not valid JSON", err)
	}
	if b.Version != BackupVersion {
		return nil, apperr.Validation(apperr.ErrInvalidField, fmt.Sprintf("unsupported backup version %d", b.Version))
	}
	return &b, nil
}

// Restore writes a backup through w: locations first, then items with their
// location IDs remapped, then users, then branding. Records that conflict
// with existing ones are skipped and reported; a location whose code already
// exists is reused for the items that referenced it.
func Restore(ctx context.Context, w Writer, b *Backup) (Report, error) {
	var rep Report

	existing := locationsByCode(w.Locations())
	remap := make(map[string]string, len(b.Locations))
	for _, loc := range b.Locations {
		created, err := w.AddLocation(ctx, model.Location{Code: loc.Code, Name: loc.Name})
		if err = written(err); err != nil {
			if errors.Is(err, apperr.ErrWriteConflict) {
				if prev, ok := existing[model.NormalizeCode(loc.Code)]; ok {
					remap[loc.ID] = prev.ID
				}
			}
			if skip := rep.skip(ctx, loc.Code, err); skip != nil {
				return rep, skip
			}
			continue
		}
		remap[loc.ID] = created.ID
		rep.Locations++
	}

	for _, it := range b.Items {
		item := it
		item.ID = ""
		item.LocationID = remap[it.LocationID]

		_, err := w.AddItem(ctx, item)
		if err = written(err); err != nil {
			if skip := rep.skip(ctx, it.SKU, err); skip != nil {
				return rep, skip
			}
			continue
		}
		rep.Items++
	}

	for _, u := range b.Users {
		user := model.User(u)
		if user.IsFallback() {
			continue
		}
		user.ID = ""

		_, err := w.ImportUser(ctx, user)
		if err = written(err); err != nil {
			if skip := rep.skip(ctx, u.Username, err); skip != nil {
				return rep, skip
			}
			continue
		}
		rep.Users++
	}

	if b.Branding == (model.Branding{}) {
		return rep, nil
	}
	br := b.Branding
	_, err := w.UpdateBranding(ctx, model.BrandingPatch{
		Title:         &br.Title,
		PrimaryColor:  &br.PrimaryColor,
		LogoURL:       &br.LogoURL,
		Description:   &br.Description,
		FooterText:    &br.FooterText,
		CopyrightText: &br.CopyrightText,
	})
	if err = written(err); err != nil {
		return rep, fmt.Errorf("restoring branding: %w", err)
	}
	return rep, nil
}

// skip records a failed record. Failures that would hit every following
// record as well abort the restore.
func (r *Report) skip(ctx context.Context, key string, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	switch apperr.KindOf(err) {
	case apperr.KindSchemaMismatch, apperr.KindAuthRejected, apperr.KindNetworkUnavailable:
		return err
	}
	msg, _ := apperr.Message(err)
	r.Skipped = append(r.Skipped, RowError{Key: key, Error: msg})
	return nil
}
