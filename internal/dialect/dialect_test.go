package dialect

import "testing"

func TestMysqlAtLeast84(t *testing.T) {
	tests := []struct {
		version string
		want    bool
	}{
		{"8.4.0", true},
		{"8.4.1", true},
		{"9.0.0", true},
		{"8.3.9", false},
		{"8.0.36", false},
		{"8.0.36-commercial", false},
		{"8.4.0-log", true},
		{"not-a-version", false},
	}
	for _, tt := range tests {
		if got := mysqlAtLeast84(tt.version); got != tt.want {
			t.Errorf("mysqlAtLeast84(%q) = %v, want %v", tt.version, got, tt.want)
		}
	}
}

func TestNameString(t *testing.T) {
	if MySQL.String() != "mysql" {
		t.Fatalf("want mysql, got %s", MySQL.String())
	}
	if MariaDB.String() != "mariadb" {
		t.Fatalf("want mariadb, got %s", MariaDB.String())
	}
}
