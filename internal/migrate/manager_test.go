package migrate

import (
	"context"
	"io/fs"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/DATA-DOG/go-sqlmock"
)

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"migrations/0001_a.up.sql":   {Data: []byte("create table a (id int);\ninsert into a values (1);")},
		"migrations/0001_a.down.sql": {Data: []byte("drop table a;")},
		"migrations/0002_b.up.sql":   {Data: []byte("create table b (note text default 'x;y');")},
		"seeds/0001_s.sql":           {Data: []byte("insert into a values (2);")},
	}
}

func expectEnsure(mock sqlmock.Sqlmock) {
	mock.ExpectExec(`create table if not exists schema_migrations`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`create table if not exists schema_seeds`).WillReturnResult(sqlmock.NewResult(0, 0))
}

func TestUpAppliesPendingInOrder(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	expectEnsure(mock)
	mock.ExpectQuery(`select name from schema_migrations`).
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("0001_a.up.sql"))
	mock.ExpectBegin()
	mock.ExpectExec(`create table b \(note text default 'x;y'\);`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()
	mock.ExpectExec(`insert into schema_migrations`).WithArgs("0002_b.up.sql", sqlmock.AnyArg()).WillReturnResult(sqlmock.NewResult(1, 1))

	m := NewManager(db, testFS(), "migrations", "seeds")
	if err := m.Up(context.Background()); err != nil {
		t.Fatalf("Up: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestDownRollsBackLatest(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	expectEnsure(mock)
	mock.ExpectQuery(`select name from schema_migrations order by applied_at`).
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("0001_a.up.sql"))
	mock.ExpectBegin()
	mock.ExpectExec(`drop table a;`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()
	mock.ExpectExec(`delete from schema_migrations where name = \$1`).WithArgs("0001_a.up.sql").WillReturnResult(sqlmock.NewResult(0, 1))

	m := NewManager(db, testFS(), "migrations", "seeds")
	if err := m.Down(context.Background()); err != nil {
		t.Fatalf("Down: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPendingAndSeed(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	expectEnsure(mock)
	mock.ExpectQuery(`select name from schema_migrations`).WillReturnRows(sqlmock.NewRows([]string{"name"}))
	m := NewManager(db, testFS(), "migrations", "seeds")
	pending, err := m.Pending(context.Background())
	if err != nil {
		t.Fatalf("Pending: %v", err)
	}
	if strings.Join(pending, ",") != "0001_a.up.sql,0002_b.up.sql" {
		t.Fatalf("unexpected pending %v", pending)
	}

	expectEnsure(mock)
	mock.ExpectQuery(`select name from schema_seeds`).WillReturnRows(sqlmock.NewRows([]string{"name"}))
	mock.ExpectBegin()
	mock.ExpectExec(`insert into a values \(2\);`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectExec(`insert into schema_seeds`).WithArgs("0001_s.sql", sqlmock.AnyArg()).WillReturnResult(sqlmock.NewResult(1, 1))
	if err := m.Seed(context.Background()); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSplitStatementsKeepsQuotedSemicolons(t *testing.T) {
	got := splitStatements("insert into t values ('a;b'); select 1;\n")
	if len(got) != 2 {
		t.Fatalf("expected 2 statements, got %d: %q", len(got), got)
	}
	if strings.TrimSpace(got[0]) != "insert into t values ('a;b');" {
		t.Fatalf("unexpected first statement %q", got[0])
	}
}

func TestEmbeddedSchema(t *testing.T) {
	files, err := collectSQL(Schema(), MigrationsDir, ".up.sql")
	if err != nil {
		t.Fatalf("collectSQL: %v", err)
	}
	if len(files) < 2 || files[0].Base != "0001_users.up.sql" {
		t.Fatalf("unexpected embedded migrations %+v", files)
	}
	for _, f := range files {
		down := strings.TrimSuffix(f.Path, ".up.sql") + ".down.sql"
		if _, err := fs.Stat(Schema(), down); err != nil {
			t.Fatalf("missing down migration for %s", f.Base)
		}
	}
}
