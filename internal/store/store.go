package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"fitengine/internal/activity"
	"fitengine/internal/catalog"
)

// signalColumns maps signal names onto the records table, in column order.
var signalColumns = []string{
	activity.SignalPower,
	activity.SignalHeartrate,
	activity.SignalSpeed,
	activity.SignalCadence,
	activity.SignalAltitude,
	activity.SignalDistance,
}

// Store provides the application's data access layer over SQLite.
type Store struct {
	db *sql.DB
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for advanced operations.
func (s *Store) DB() *sql.DB {
	return s.db
}

// ActivitySummary is the stored header of one activity.
type ActivitySummary struct {
	ID        int64
	Name      string
	StartTime time.Time
	TimerTime float64
	Sessions  []activity.Sport
}

// SaveActivity inserts or updates an activity header and its sessions.
func (s *Store) SaveActivity(sum *ActivitySummary) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO activities (id, name, start_time, timer_time)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			start_time = excluded.start_time,
			timer_time = excluded.timer_time,
			updated_at = CURRENT_TIMESTAMP`,
		sum.ID, sum.Name, sum.StartTime.UTC().Format(time.RFC3339), sum.TimerTime)
	if err != nil {
		return fmt.Errorf("saving activity %d: %w", sum.ID, err)
	}

	if _, err := tx.Exec(`DELETE FROM sessions WHERE activity_id = ?`, sum.ID); err != nil {
		return err
	}
	for i, sess := range sum.Sessions {
		_, err := tx.Exec(`
			INSERT INTO sessions (activity_id, seq, sport, sub_sport)
			VALUES (?, ?, ?, ?)`,
			sum.ID, i, sess.Sport, sess.SubSport)
		if err != nil {
			return fmt.Errorf("saving session %d of activity %d: %w", i, sum.ID, err)
		}
	}
	return tx.Commit()
}

// SaveRecords replaces the signal records of an activity.
func (s *Store) SaveRecords(activityID int64, samples []activity.Sample) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM records WHERE activity_id = ?`, activityID); err != nil {
		return err
	}
	stmt, err := tx.Prepare(`
		INSERT INTO records (activity_id, time_offset, power, heartrate, speed, cadence, altitude, distance)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, sample := range samples {
		args := make([]any, 0, 2+len(signalColumns))
		args = append(args, activityID, sample.Offset)
		for _, col := range signalColumns {
			args = append(args, nullSignal(sample, col))
		}
		if _, err := stmt.Exec(args...); err != nil {
			return fmt.Errorf("saving record at offset %d: %w", sample.Offset, err)
		}
	}
	return tx.Commit()
}

// ListActivityIDs returns all activity ids ordered by start time.
func (s *Store) ListActivityIDs() ([]int64, error) {
	rows, err := s.db.Query(`SELECT id FROM activities ORDER BY start_time`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// LoadActivity assembles the full read view of one activity: header,
// sessions, records with their populated-signal manifest, and any stored
// mean-max tables.
func (s *Store) LoadActivity(id int64) (*activity.Activity, error) {
	var name, startText string
	var timerTime float64
	err := s.db.QueryRow(`
		SELECT name, start_time, timer_time FROM activities WHERE id = ?`, id).
		Scan(&name, &startText, &timerTime)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrActivityNotFound
	}
	if err != nil {
		return nil, err
	}
	start, err := time.Parse(time.RFC3339, startText)
	if err != nil {
		return nil, fmt.Errorf("activity %d has bad start time %q: %w", id, startText, err)
	}

	sessions, err := s.loadSessions(id)
	if err != nil {
		return nil, err
	}
	columns, samples, err := s.loadRecords(id)
	if err != nil {
		return nil, err
	}

	act := activity.New(id, name, start, timerTime, sessions, columns, samples)

	meanMax, err := s.loadMeanMax(id)
	if err != nil {
		return nil, err
	}
	for signal, points := range meanMax {
		act.SetMeanMax(signal, points)
	}
	return act, nil
}

func (s *Store) loadSessions(id int64) ([]activity.Sport, error) {
	rows, err := s.db.Query(`
		SELECT sport, sub_sport FROM sessions WHERE activity_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []activity.Sport
	for rows.Next() {
		var sport string
		var subSport sql.NullString
		if err := rows.Scan(&sport, &subSport); err != nil {
			return nil, err
		}
		sessions = append(sessions, activity.Sport{Sport: sport, SubSport: subSport.String})
	}
	return sessions, rows.Err()
}

// loadRecords returns the signal manifest (columns with at least one
// non-null value) and the sample rows in time order.
func (s *Store) loadRecords(id int64) ([]string, []activity.Sample, error) {
	rows, err := s.db.Query(`
		SELECT time_offset, power, heartrate, speed, cadence, altitude, distance
		FROM records WHERE activity_id = ? ORDER BY time_offset`, id)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	populated := make(map[string]bool)
	var samples []activity.Sample
	for rows.Next() {
		var offset int
		vals := make([]sql.NullFloat64, len(signalColumns))
		dest := make([]any, 0, 1+len(vals))
		dest = append(dest, &offset)
		for i := range vals {
			dest = append(dest, &vals[i])
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, nil, err
		}

		sample := activity.Sample{Offset: offset, Values: make(map[string]float64)}
		for i, col := range signalColumns {
			if vals[i].Valid {
				sample.Values[col] = vals[i].Float64
				populated[col] = true
			}
		}
		samples = append(samples, sample)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	columns := make([]string, 0, len(populated))
	for _, col := range signalColumns {
		if populated[col] {
			columns = append(columns, col)
		}
	}
	return columns, samples, nil
}

// SaveMeanMax replaces the stored mean-max table of one signal.
func (s *Store) SaveMeanMax(activityID int64, signal string, points []activity.MeanMaxPoint) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`DELETE FROM meanmaxes WHERE activity_id = ? AND signal = ?`, activityID, signal)
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare(`
		INSERT INTO meanmaxes (activity_id, signal, duration, value)
		VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, pt := range points {
		if _, err := stmt.Exec(activityID, signal, pt.Duration, pt.Value); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// HasMeanMax reports whether any mean-max rows exist for an activity.
func (s *Store) HasMeanMax(activityID int64) (bool, error) {
	var n int
	err := s.db.QueryRow(`
		SELECT COUNT(*) FROM meanmaxes WHERE activity_id = ?`, activityID).Scan(&n)
	return n > 0, err
}

func (s *Store) loadMeanMax(id int64) (map[string][]activity.MeanMaxPoint, error) {
	rows, err := s.db.Query(`
		SELECT signal, duration, value FROM meanmaxes
		WHERE activity_id = ? ORDER BY signal, duration`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string][]activity.MeanMaxPoint)
	for rows.Next() {
		var signal string
		var pt activity.MeanMaxPoint
		if err := rows.Scan(&signal, &pt.Duration, &pt.Value); err != nil {
			return nil, err
		}
		out[signal] = append(out[signal], pt)
	}
	return out, rows.Err()
}

// Get returns the cached value of a metric for an activity. A stored row
// with neither representation is a computed "no value" and still reports
// a hit.
func (s *Store) Get(activityID int64, metric string) (catalog.Value, bool, error) {
	var value sql.NullFloat64
	var jsonValue sql.NullString
	err := s.db.QueryRow(`
		SELECT value, json_value FROM metrics
		WHERE activity_id = ? AND name = ?`, activityID, metric).
		Scan(&value, &jsonValue)
	if errors.Is(err, sql.ErrNoRows) {
		return catalog.Value{}, false, nil
	}
	if err != nil {
		return catalog.Value{}, false, err
	}

	if value.Valid {
		return catalog.Scalar(value.Float64), true, nil
	}
	if jsonValue.Valid {
		var structured any
		if err := json.Unmarshal([]byte(jsonValue.String), &structured); err != nil {
			return catalog.Value{}, false, fmt.Errorf("decoding cached %s: %w", metric, err)
		}
		return catalog.Structured(structured), true, nil
	}
	return catalog.Value{}, true, nil
}

// Put stores a metric value. With overwrite false an existing row wins,
// matching incremental runs; with overwrite true the row is replaced.
func (s *Store) Put(activityID int64, metric string, v catalog.Value, overwrite bool) error {
	value, jsonValue, err := encodeValue(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", metric, err)
	}

	query := `
		INSERT INTO metrics (activity_id, name, value, json_value)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(activity_id, name) DO NOTHING`
	if overwrite {
		query = `
		INSERT INTO metrics (activity_id, name, value, json_value)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(activity_id, name) DO UPDATE SET
			value = excluded.value,
			json_value = excluded.json_value,
			computed_at = CURRENT_TIMESTAMP`
	}
	_, err = s.db.Exec(query, activityID, metric, value, jsonValue)
	return err
}

func encodeValue(v catalog.Value) (sql.NullFloat64, sql.NullString, error) {
	if v.Scalar != nil {
		f := *v.Scalar
		if math.IsNaN(f) || math.IsInf(f, 0) {
			// Non-finite scalars are not representable; store "no value".
			return sql.NullFloat64{}, sql.NullString{}, nil
		}
		return sql.NullFloat64{Float64: f, Valid: true}, sql.NullString{}, nil
	}
	if v.Structured != nil {
		data, err := json.Marshal(v.Structured)
		if err != nil {
			return sql.NullFloat64{}, sql.NullString{}, err
		}
		return sql.NullFloat64{}, sql.NullString{String: string(data), Valid: true}, nil
	}
	return sql.NullFloat64{}, sql.NullString{}, nil
}

// DailyValue is one day's rollup of a metric across its activities.
type DailyValue struct {
	Date  time.Time
	Value float64
}

// DailyAggregates rolls a cached scalar metric up per calendar day of
// activity start, using the metric's declared aggregation.
func (s *Store) DailyAggregates(metric string, agg catalog.Aggregation) ([]DailyValue, error) {
	var fn string
	switch agg {
	case catalog.AggregateSum:
		fn = "SUM"
	case catalog.AggregateMean:
		fn = "AVG"
	case catalog.AggregateMax:
		fn = "MAX"
	default:
		return nil, fmt.Errorf("metric %s has no aggregation", metric)
	}

	rows, err := s.db.Query(fmt.Sprintf(`
		SELECT date(a.start_time) AS day, %s(m.value)
		FROM metrics m
		JOIN activities a ON a.id = m.activity_id
		WHERE m.name = ? AND m.value IS NOT NULL
		GROUP BY day
		ORDER BY day`, fn), metric)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DailyValue
	for rows.Next() {
		var day string
		var value float64
		if err := rows.Scan(&day, &value); err != nil {
			return nil, err
		}
		date, err := time.Parse("2006-01-02", day)
		if err != nil {
			return nil, fmt.Errorf("bad day %q: %w", day, err)
		}
		out = append(out, DailyValue{Date: date, Value: value})
	}
	return out, rows.Err()
}

func nullSignal(sample activity.Sample, col string) sql.NullFloat64 {
	v, ok := sample.Values[col]
	if !ok || math.IsNaN(v) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}
