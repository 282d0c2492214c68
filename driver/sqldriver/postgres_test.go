package sqldriver

import (
	"testing"

	"github.com/seamdb/seam/driver"
)

func TestDollarPlaceholders(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{
			"single marker",
			"SELECT checksum FROM schema_migrations WHERE id = ?",
			"SELECT checksum FROM schema_migrations WHERE id = $1",
		},
		{
			"numbered in order",
			"INSERT INTO schema_migrations (id, checksum, applied_at) VALUES (?, ?, ?)",
			"INSERT INTO schema_migrations (id, checksum, applied_at) VALUES ($1, $2, $3)",
		},
		{
			"marker inside single-quoted literal",
			"SELECT * FROM t WHERE s = 'what?' AND id = ?",
			"SELECT * FROM t WHERE s = 'what?' AND id = $1",
		},
		{
			"marker inside double-quoted identifier",
			`SELECT "odd?col" FROM t WHERE id = ?`,
			`SELECT "odd?col" FROM t WHERE id = $1`,
		},
		{
			"quote kinds toggle independently",
			`SELECT * FROM t WHERE a = '"?"' AND b = ?`,
			`SELECT * FROM t WHERE a = '"?"' AND b = $1`,
		},
		{
			"no markers",
			"DELETE FROM t",
			"DELETE FROM t",
		},
		{
			"empty",
			"",
			"",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := dollarPlaceholders(tc.in); got != tc.want {
				t.Errorf("got  %q\nwant %q", got, tc.want)
			}
		})
	}
}

func TestRebindAppliedAtPrepare(t *testing.T) {
	c := newConn(t).(*conn)
	c.rebind = dollarPlaceholders

	// sqlite accepts $1-style markers, so a successful prepare-and-exec
	// here proves the rewrite ran on the prepared text.
	st, err := c.Prepare("CREATE TABLE r (v TEXT)")
	if err != nil {
		t.Fatalf("prepare ddl: %v", err)
	}
	if _, err := st.Exec(); err != nil {
		t.Fatalf("create table: %v", err)
	}
	st.Close()

	st, err = c.Prepare("INSERT INTO r (v) VALUES (?)")
	if err != nil {
		t.Fatalf("prepare insert: %v", err)
	}
	defer st.Close()
	if err := st.Bind(1, driver.String("hello")); err != nil {
		t.Fatalf("bind: %v", err)
	}
	if _, err := st.Exec(); err != nil {
		t.Fatalf("insert: %v", err)
	}
}
