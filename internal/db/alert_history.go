package db

import (
	"database/sql"
	"encoding/json"
	"time"

	"ffuniverse/internal/alerts"
)

// AlertHistoryEntry records one dispatched alert notification.
type AlertHistoryEntry struct {
	ID             int64             `json:"id"`
	AlertID        string            `json:"alert_id"`
	ItemName       string            `json:"item_name"`
	Price          int               `json:"price"`
	Direction      string            `json:"direction"`
	TargetPrice    int               `json:"target_price"`
	Location       string            `json:"location"`
	ChannelsSent   []string          `json:"channels_sent"`
	ChannelsFailed map[string]string `json:"channels_failed,omitempty"`
	SentAt         string            `json:"sent_at"`
}

// SaveAlertHistory records a dispatched alert to the history table.
func (d *DB) SaveAlertHistory(entry AlertHistoryEntry) error {
	channelsSentJSON, _ := json.Marshal(entry.ChannelsSent)
	var channelsFailedJSON []byte
	if len(entry.ChannelsFailed) > 0 {
		channelsFailedJSON, _ = json.Marshal(entry.ChannelsFailed)
	}

	if entry.SentAt == "" {
		entry.SentAt = time.Now().UTC().Format(time.RFC3339)
	}

	_, err := d.sql.Exec(`
		INSERT INTO alert_history (
			alert_id, item_name, price, direction, target_price,
			location, channels_sent, channels_failed, sent_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.AlertID,
		entry.ItemName,
		entry.Price,
		entry.Direction,
		entry.TargetPrice,
		entry.Location,
		string(channelsSentJSON),
		string(channelsFailedJSON),
		entry.SentAt,
	)
	return err
}

// RecordTriggered saves a dispatched alert notification. Implements the
// monitor's history recorder; a failed insert is silently dropped because
// history is an audit trail, not part of alert delivery.
func (d *DB) RecordTriggered(t *alerts.Triggered, sent []string, failed map[string]string) {
	d.SaveAlertHistory(AlertHistoryEntry{
		AlertID:        t.AlertID,
		ItemName:       t.ItemName,
		Price:          t.Price,
		Direction:      t.Direction,
		TargetPrice:    t.TargetPrice,
		Location:       t.Location,
		ChannelsSent:   sent,
		ChannelsFailed: failed,
	})
}

// GetAlertHistory returns the most recent alert history entries, newest
// first. Limit 0 means unlimited.
func (d *DB) GetAlertHistory(limit int) ([]AlertHistoryEntry, error) {
	query := `
		SELECT id, alert_id, item_name, price, direction, target_price,
		       location, channels_sent, channels_failed, sent_at
		  FROM alert_history
		 ORDER BY sent_at DESC
	`
	var args []interface{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := d.sql.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []AlertHistoryEntry
	for rows.Next() {
		var e AlertHistoryEntry
		var channelsSentStr, channelsFailedStr sql.NullString
		if err := rows.Scan(
			&e.ID,
			&e.AlertID,
			&e.ItemName,
			&e.Price,
			&e.Direction,
			&e.TargetPrice,
			&e.Location,
			&channelsSentStr,
			&channelsFailedStr,
			&e.SentAt,
		); err != nil {
			return nil, err
		}
		if channelsSentStr.Valid {
			json.Unmarshal([]byte(channelsSentStr.String), &e.ChannelsSent)
		}
		if channelsFailedStr.Valid && channelsFailedStr.String != "" {
			json.Unmarshal([]byte(channelsFailedStr.String), &e.ChannelsFailed)
		}
		entries = append(entries, e)
	}

	if entries == nil {
		return []AlertHistoryEntry{}, nil
	}
	return entries, nil
}

// CleanupOldAlertHistory removes alert history older than the specified
// number of days. Returns the number of rows removed.
func (d *DB) CleanupOldAlertHistory(olderThanDays int) (int64, error) {
	if olderThanDays <= 0 {
		return 0, nil
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -olderThanDays).Format(time.RFC3339)
	res, err := d.sql.Exec("DELETE FROM alert_history WHERE sent_at < ?", cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
