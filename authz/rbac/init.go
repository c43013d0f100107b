package rbac

import (
	"os"
	"path/filepath"

	"github.com/casbin/casbin/v2"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"github.com/cockroachdb/errors"
	"gorm.io/gorm"
)

var modelData = []byte(`
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act, eft

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, "admin") || (g(r.sub, p.sub) && keyMatch3(r.obj, p.obj) && r.act == p.act)
`)

// Init builds the casbin enforcer against db, persisting the policy
// table through gorm-adapter, and seeds defaultAdmins into the admin
// role. Safe to call with a nil db to leave RBAC disabled (New then
// returns the noop implementation).
func Init(db *gorm.DB, tempDir string, defaultAdmins ...string) error {
	if db == nil {
		return nil
	}

	filename := filepath.Join(tempDir, "casbin_model.conf")
	if err := os.WriteFile(filename, modelData, 0o600); err != nil {
		return errors.Wrapf(err, "failed to write casbin model file %s", filename)
	}

	var err error
	if Adapter, err = gormadapter.NewAdapterByDB(db); err != nil {
		return errors.Wrap(err, "failed to create casbin adapter")
	}
	if Enforcer, err = casbin.NewEnforcer(filename, Adapter); err != nil {
		return errors.Wrap(err, "failed to create casbin enforcer")
	}
	Enforcer.EnableAutoSave(true)

	for _, user := range defaultAdmins {
		if _, err := Enforcer.AddGroupingPolicy(user, AdminRole); err != nil {
			return err
		}
	}
	return Enforcer.LoadPolicy()
}

// AdminRole is the implicit-wildcard role matchers bypass on.
const AdminRole = "admin"
