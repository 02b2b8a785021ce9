package sqlcheck

import "testing"

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		sql    string
		valid  bool
		reason string
	}{
		{
			name:  "simple select with limit",
			sql:   "SELECT * FROM users LIMIT 10",
			valid: true,
		},
		{
			name:  "lowercase select",
			sql:   "select name, email from users limit 5",
			valid: true,
		},
		{
			name:  "leading whitespace",
			sql:   "  \n\tSELECT id FROM orders LIMIT 1",
			valid: true,
		},
		{
			name:   "delete statement",
			sql:    "DELETE FROM users",
			reason: "must start with SELECT",
		},
		{
			name:   "insert statement",
			sql:    "INSERT INTO users (id) VALUES (1)",
			reason: "must start with SELECT",
		},
		{
			name:   "empty statement",
			sql:    "",
			reason: "must start with SELECT",
		},
		{
			name:   "piggybacked drop",
			sql:    "SELECT * FROM users; DROP TABLE users; -- LIMIT 5",
			reason: "forbidden keyword detected: DROP",
		},
		{
			name:   "delete inside select",
			sql:    "SELECT * FROM users WHERE id IN (DELETE FROM audit) LIMIT 5",
			reason: "forbidden keyword detected: DELETE",
		},
		{
			name:   "missing limit",
			sql:    "SELECT * FROM users",
			reason: "missing or invalid LIMIT clause",
		},
		{
			name:   "limit without count",
			sql:    "SELECT * FROM users LIMIT",
			reason: "missing or invalid LIMIT clause",
		},
		{
			name:   "limit with non-numeric count",
			sql:    "SELECT * FROM users LIMIT all",
			reason: "missing or invalid LIMIT clause",
		},
		{
			name:  "keyword as substring of identifier",
			sql:   "SELECT created_at, updated_at FROM users LIMIT 20",
			valid: true,
		},
		{
			name:  "limit with offset clause",
			sql:   "SELECT id FROM orders ORDER BY id LIMIT 10 OFFSET 5",
			valid: true,
		},
		{
			name:   "reported keyword is first in denylist order",
			sql:    "SELECT 1 WHERE x = 'DROP'; UPDATE t SET a=1",
			reason: "forbidden keyword detected: UPDATE",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v := Validate(tc.sql)
			if v.Valid != tc.valid {
				t.Fatalf("Validate(%q).Valid = %v, want %v (reason %q)", tc.sql, v.Valid, tc.valid, v.Reason)
			}
			if v.Reason != tc.reason {
				t.Errorf("Validate(%q).Reason = %q, want %q", tc.sql, v.Reason, tc.reason)
			}
		})
	}
}
