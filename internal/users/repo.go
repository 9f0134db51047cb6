package users

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{db: db}
}

type UpsertUser struct {
	FirebaseUID string
	Email       string
	DisplayName string
}

// Membership is what the platform knows about a user beyond the token.
type Membership struct {
	Role      string
	ProjectID string
}

// EnsureUser records the user on first sight and returns the stored role and
// project binding. Existing role and project are never overwritten here;
// they are assigned by an administrator.
func (r *Repo) EnsureUser(ctx context.Context, u UpsertUser) (Membership, error) {
	if u.FirebaseUID == "" {
		return Membership{}, fmt.Errorf("firebase_uid required")
	}

	const q = `
insert into users (firebase_uid, email, display_name, updated_at)
values ($1, nullif($2,''), nullif($3,''), now())
on conflict (firebase_uid) do update
set
  email = coalesce(excluded.email, users.email),
  display_name = coalesce(excluded.display_name, users.display_name),
  updated_at = now()
returning role, coalesce(project_id, '');
`
	var m Membership
	if err := r.db.QueryRow(ctx, q, u.FirebaseUID, u.Email, u.DisplayName).Scan(&m.Role, &m.ProjectID); err != nil {
		return Membership{}, err
	}
	return m, nil
}

// AssignProject binds a user to a project with the given role.
func (r *Repo) AssignProject(ctx context.Context, firebaseUID, projectID, role string) error {
	const q = `
update users
set project_id = nullif($2,''), role = $3, updated_at = now()
where firebase_uid = $1;
`
	tag, err := r.db.Exec(ctx, q, firebaseUID, projectID, role)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user %s not found", firebaseUID)
	}
	return nil
}
