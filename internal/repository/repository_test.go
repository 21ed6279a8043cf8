package repository

import (
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestReadingWindowQueries(t *testing.T) {
	t.Parallel()

	cutoff := time.Date(2026, 1, 2, 3, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		sql  func() (string, []interface{}, error)
		cmp  string
	}{
		{"recent", recentQuery("sensor-001", cutoff, 20).ToSql, "timestamp >= $2"},
		{"historical", historicalQuery("sensor-001", cutoff, 200).ToSql, "timestamp < $2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query, args, err := tt.sql()
			if err != nil {
				t.Fatalf("ToSql failed: %v", err)
			}
			if !strings.Contains(query, "sensor_id = $1") || !strings.Contains(query, tt.cmp) {
				t.Fatalf("unexpected where clause: %s", query)
			}
			if !strings.Contains(query, "ORDER BY timestamp DESC") || !strings.Contains(query, "LIMIT") {
				t.Fatalf("expected newest-first limited query: %s", query)
			}
			want := []interface{}{"sensor-001", cutoff}
			if !reflect.DeepEqual(args, want) {
				t.Fatalf("expected args %v, got %v", want, args)
			}
		})
	}
}

func TestAlertsQuery(t *testing.T) {
	t.Parallel()

	query, args, err := alertsQuery("").ToSql()
	if err != nil {
		t.Fatalf("ToSql failed: %v", err)
	}
	if strings.Contains(query, "WHERE") || len(args) != 0 {
		t.Fatalf("expected unfiltered query, got %s %v", query, args)
	}

	query, args, err = alertsQuery("critical").ToSql()
	if err != nil {
		t.Fatalf("ToSql failed: %v", err)
	}
	if !strings.Contains(query, "WHERE severity = $1") || len(args) != 1 || args[0] != "critical" {
		t.Fatalf("expected severity filter, got %s %v", query, args)
	}
}
