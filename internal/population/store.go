// seclogsim - synthetic security-audit event generator
// SPDX-License-Identifier: AGPL-3.0-or-later

package population

import (
	"database/sql"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"

	json "github.com/goccy/go-json"

	_ "github.com/duckdb/duckdb-go/v2"
)

const actorsTable = "actors"

// populationColumns is the population file schema, in column-definition
// order. Columns marked optional tolerate legacy files that predate them:
// absent columns load as kind/role defaults instead of failing.
var populationColumns = []struct {
	name     string
	ddl      string
	optional bool
}{
	{"actor_kind", "VARCHAR NOT NULL", false},
	{"role", "VARCHAR", true},
	{"identity_type", "VARCHAR NOT NULL", false},
	{"principal_id", "VARCHAR NOT NULL", false},
	{"arn", "VARCHAR NOT NULL", false},
	{"account_id", "VARCHAR NOT NULL", false},
	{"user_name", "VARCHAR", true},
	{"user_agent", "VARCHAR NOT NULL", false},
	{"source_ip", "VARCHAR NOT NULL", false},
	{"active_start_hour", "SMALLINT NOT NULL", false},
	{"active_hours", "SMALLINT NOT NULL", false},
	{"timezone_offset", "TINYINT NOT NULL", false},
	{"weekend_active", "BOOLEAN NOT NULL", false},
	{"access_key_id", "VARCHAR", true},
	{"rate_per_hour", "DOUBLE", true},
	{"error_rate", "DOUBLE", true},
	{"service_profile", "VARCHAR", true},
	{"service_pattern", "VARCHAR", true},
	{"actor_id", "VARCHAR", true},
	{"tags", "VARCHAR", true},
	{"event_bias", "VARCHAR", true},
}

// Save persists p to a DuckDB database file at path. An existing file is
// replaced wholesale; a population file always describes exactly one
// generated population.
func Save(path string, p *ActorPopulation) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("population: replace %s: %w", path, err)
	}
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return fmt.Errorf("population: open %s: %w", path, err)
	}
	defer db.Close()

	if err := createTable(db); err != nil {
		return err
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("population: begin transaction: %w", err)
	}

	cols := make([]string, len(populationColumns))
	placeholders := make([]string, len(populationColumns))
	for i, c := range populationColumns {
		cols[i] = c.name
		placeholders[i] = "?"
	}
	insertSQL := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", actorsTable,
		strings.Join(cols, ", "), strings.Join(placeholders, ", "))

	stmt, err := tx.Prepare(insertSQL)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("population: prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, a := range p.Actors {
		row, err := actorToRow(a)
		if err != nil {
			tx.Rollback()
			return err
		}
		if _, err := stmt.Exec(row...); err != nil {
			tx.Rollback()
			return fmt.Errorf("population: insert actor %s: %w", a.id(), err)
		}
	}

	return tx.Commit()
}

func createTable(db *sql.DB) error {
	defs := make([]string, len(populationColumns))
	for i, c := range populationColumns {
		defs[i] = fmt.Sprintf("%s %s", c.name, c.ddl)
	}
	ddl := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", actorsTable, strings.Join(defs, ", "))
	_, err := db.Exec(ddl)
	if err != nil {
		return fmt.Errorf("population: create table: %w", err)
	}
	return nil
}

func actorToRow(a ActorSeed) ([]any, error) {
	tags := make([]string, 0, len(a.Tags))
	for t := range a.Tags {
		tags = append(tags, t)
	}
	sort.Strings(tags)
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return nil, fmt.Errorf("population: marshal tags for %s: %w", a.id(), err)
	}
	biasJSON, err := json.Marshal(a.EventBias)
	if err != nil {
		return nil, fmt.Errorf("population: marshal event_bias for %s: %w", a.id(), err)
	}
	uaJSON, err := json.Marshal(a.UserAgents)
	if err != nil {
		return nil, fmt.Errorf("population: marshal user_agent for %s: %w", a.id(), err)
	}
	ipJSON, err := json.Marshal(a.SourceIPs)
	if err != nil {
		return nil, fmt.Errorf("population: marshal source_ip for %s: %w", a.id(), err)
	}

	return []any{
		string(a.Kind),
		nullableString(string(a.Role)),
		a.IdentityType,
		a.PrincipalID,
		a.ARN,
		a.AccountID,
		nullableString(a.UserName),
		string(uaJSON),
		string(ipJSON),
		a.ActiveStartHour,
		a.ActiveHours,
		a.TimezoneOffset,
		a.WeekendActive,
		nullableString(a.AccessKeyID),
		a.RatePerHour,
		a.ErrorRate,
		nullableString(string(a.ServiceProfile)),
		nullableString(string(a.ServicePattern)),
		nullableString(a.ExplicitID),
		string(tagsJSON),
		string(biasJSON),
	}, nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// Load reads an ActorPopulation back from a DuckDB database file,
// tolerating legacy files that predate one or more optional columns.
func Load(path string) (*ActorPopulation, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("population: open %s: %w", path, err)
	}
	defer db.Close()

	present, err := presentColumns(db)
	if err != nil {
		return nil, err
	}

	selectCols := make([]string, len(populationColumns))
	for i, c := range populationColumns {
		if present[c.name] {
			selectCols[i] = c.name
		} else {
			selectCols[i] = "NULL AS " + c.name
		}
	}
	q := fmt.Sprintf("SELECT %s FROM %s", strings.Join(selectCols, ", "), actorsTable)

	rows, err := db.Query(q)
	if err != nil {
		return nil, fmt.Errorf("population: query actors: %w", err)
	}
	defer rows.Close()

	var actors []ActorSeed
	id := 0
	for rows.Next() {
		a, err := scanActor(rows, id)
		if err != nil {
			return nil, err
		}
		actors = append(actors, a)
		id++
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("population: iterate actors: %w", err)
	}

	return &ActorPopulation{Actors: actors}, nil
}

func presentColumns(db *sql.DB) (map[string]bool, error) {
	rows, err := db.Query(`SELECT column_name FROM information_schema.columns WHERE table_name = ?`, actorsTable)
	if err != nil {
		return nil, fmt.Errorf("population: inspect columns: %w", err)
	}
	defer rows.Close()

	present := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("population: scan column name: %w", err)
		}
		present[name] = true
	}
	return present, rows.Err()
}

func scanActor(rows *sql.Rows, id int) (ActorSeed, error) {
	var (
		kind, identityType, principalID, arn, accountID string
		role, userName, userAgentJSON, sourceIPJSON     sql.NullString
		activeStartHour, activeHours                           int
		timezoneOffset                                         int
		weekendActive                                          bool
		accessKeyID, serviceProfile, servicePattern, actorID   sql.NullString
		ratePerHour, errorRate                                 sql.NullFloat64
		tagsJSON, eventBiasJSON                                sql.NullString
	)

	if err := rows.Scan(
		&kind, &role, &identityType, &principalID, &arn, &accountID,
		&userName, &userAgentJSON, &sourceIPJSON,
		&activeStartHour, &activeHours, &timezoneOffset, &weekendActive,
		&accessKeyID, &ratePerHour, &errorRate,
		&serviceProfile, &servicePattern, &actorID, &tagsJSON, &eventBiasJSON,
	); err != nil {
		return ActorSeed{}, fmt.Errorf("population: scan actor row %d: %w", id, err)
	}

	a := ActorSeed{
		ID:              id,
		Kind:            Kind(kind),
		Role:            Role(role.String),
		IdentityType:    identityType,
		PrincipalID:     principalID,
		ARN:             arn,
		AccountID:       accountID,
		UserName:        userName.String,
		ActiveStartHour: activeStartHour,
		ActiveHours:     activeHours,
		TimezoneOffset:  timezoneOffset,
		WeekendActive:   weekendActive,
		ExplicitID:      actorID.String,
		ServiceProfile:  ServiceProfile(serviceProfile.String),
		ServicePattern:  ServicePattern(servicePattern.String),
	}

	if userAgentJSON.Valid {
		_ = json.Unmarshal([]byte(userAgentJSON.String), &a.UserAgents)
	}
	if sourceIPJSON.Valid {
		_ = json.Unmarshal([]byte(sourceIPJSON.String), &a.SourceIPs)
	}
	if tagsJSON.Valid {
		var tags []string
		_ = json.Unmarshal([]byte(tagsJSON.String), &tags)
		a.Tags = make(map[string]struct{}, len(tags))
		for _, t := range tags {
			a.Tags[t] = struct{}{}
		}
	} else {
		a.Tags = map[string]struct{}{}
	}
	if eventBiasJSON.Valid {
		a.EventBias = map[string]float64{}
		_ = json.Unmarshal([]byte(eventBiasJSON.String), &a.EventBias)
	} else {
		a.EventBias = map[string]float64{}
	}

	if accessKeyID.Valid {
		a.AccessKeyID = accessKeyID.String
	} else {
		prefix := "AKIA"
		if a.Kind == KindService {
			prefix = "ASIA"
		}
		a.AccessKeyID = prefix + fmt.Sprintf("%016X", id)[:16]
	}

	if ratePerHour.Valid && isFiniteRate(ratePerHour.Float64) {
		a.RatePerHour = ratePerHour.Float64
	} else {
		a.RatePerHour = defaultRateForRole(a.Kind, a.Role)
	}
	if errorRate.Valid && errorRate.Float64 >= 0 && errorRate.Float64 <= 1 {
		a.ErrorRate = errorRate.Float64
	} else {
		a.ErrorRate = 0.02
	}
	if a.ServiceProfile == "" && a.Kind == KindService {
		a.ServiceProfile = ServiceProfileGeneric
	}
	if a.ServicePattern == "" && a.Kind == KindService {
		a.ServicePattern = PatternConstant
	}

	return a, nil
}

func isFiniteRate(v float64) bool {
	return v > 0 && !math.IsNaN(v) && !math.IsInf(v, 0)
}

func defaultRateForRole(kind Kind, role Role) float64 {
	if kind == KindService {
		return 12
	}
	defaults := map[Role]float64{
		RoleAdmin:    6,
		RoleDev:      18,
		RoleReadonly: 4,
		RoleAuditor:  2,
	}
	if r, ok := defaults[role]; ok {
		return r
	}
	return 10
}
