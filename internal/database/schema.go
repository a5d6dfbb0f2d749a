package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schema lists the tables owned by the booking core.  room_inventory rows
// are seeded by the PMS integration; coupon tables are maintained by the
// admin dashboard.  Statements are idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS payment_intents (
        id            BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
        owner_id      BIGINT UNSIGNED NOT NULL,
        channel       VARCHAR(16)     NOT NULL,
        token         VARCHAR(16)     NOT NULL,
        chain         VARCHAR(32)     NOT NULL,
        base_amount   DECIMAL(20,2)   NOT NULL,
        amount        DECIMAL(20,2)   NOT NULL,
        status        ENUM('PENDING','CONFIRMED','CANCELLED') NOT NULL DEFAULT 'PENDING',
        coupon_codes  JSON            NULL,
        tax_value     DECIMAL(20,2)   NOT NULL DEFAULT 0,
        tx_hash       VARCHAR(128)    NULL,
        sender_wallet VARCHAR(128)    NULL,
        created_at    DATETIME(3)     NOT NULL,
        updated_at    DATETIME(3)     NOT NULL,
        KEY idx_intents_match (token, chain, status, amount, created_at),
        KEY idx_intents_owner (owner_id, status, created_at),
        KEY idx_intents_stale (status, created_at)
    ) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS guest_drafts (
        id               BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
        reservation_id   CHAR(36)        NOT NULL,
        intent_id        BIGINT UNSIGNED NOT NULL,
        owner_id         BIGINT UNSIGNED NOT NULL,
        hotel_code       VARCHAR(32)     NOT NULL,
        hotel_name       VARCHAR(255)    NOT NULL DEFAULT '',
        rate_plan_code   VARCHAR(32)     NOT NULL,
        room_type_code   VARCHAR(32)     NOT NULL,
        check_in         DATE            NOT NULL,
        check_out        DATE            NOT NULL,
        rooms            INT UNSIGNED    NOT NULL,
        guests           JSON            NOT NULL,
        category_summary JSON            NOT NULL,
        contact_name     VARCHAR(255)    NOT NULL DEFAULT '',
        contact_email    VARCHAR(255)    NOT NULL,
        contact_phone    VARCHAR(64)     NOT NULL DEFAULT '',
        total_amount     DECIMAL(20,2)   NOT NULL,
        token            VARCHAR(16)     NOT NULL,
        chain            VARCHAR(32)     NOT NULL,
        status           ENUM('PROCESSING','CONFIRMED','CANCELLED') NOT NULL DEFAULT 'PROCESSING',
        tx_hash          VARCHAR(128)    NULL,
        sender_wallet    VARCHAR(128)    NULL,
        created_at       DATETIME(3)     NOT NULL,
        updated_at       DATETIME(3)     NOT NULL,
        UNIQUE KEY uk_drafts_reservation (reservation_id),
        KEY idx_drafts_match (intent_id, status, total_amount),
        KEY idx_drafts_stale (status, created_at)
    ) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS room_inventory (
        hotel_code    VARCHAR(32)  NOT NULL,
        room_type     VARCHAR(32)  NOT NULL,
        stay_date     DATE         NOT NULL,
        available     INT UNSIGNED NOT NULL,
        last_modified DATETIME(3)  NOT NULL,
        PRIMARY KEY (hotel_code, room_type, stay_date)
    ) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS reservations (
        id             CHAR(36)        NOT NULL PRIMARY KEY,
        draft_id       BIGINT UNSIGNED NOT NULL,
        intent_id      BIGINT UNSIGNED NOT NULL,
        owner_id       BIGINT UNSIGNED NOT NULL,
        external_id    VARCHAR(128)    NULL,
        hotel_code     VARCHAR(32)     NOT NULL,
        room_type      VARCHAR(32)     NOT NULL,
        check_in       DATE            NOT NULL,
        check_out      DATE            NOT NULL,
        rooms          INT UNSIGNED    NOT NULL,
        contact_email  VARCHAR(255)    NOT NULL,
        status         VARCHAR(16)     NOT NULL,
        failure_reason VARCHAR(512)    NULL,
        cancel_reason  VARCHAR(512)    NULL,
        created_at     DATETIME(3)     NOT NULL,
        updated_at     DATETIME(3)     NOT NULL,
        KEY idx_reservations_owner (owner_id, created_at)
    ) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS transfer_logs (
        id            BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
        sender_wallet VARCHAR(128)  NOT NULL,
        token         VARCHAR(16)   NOT NULL,
        chain         VARCHAR(32)   NOT NULL,
        amount        DECIMAL(38,18) NOT NULL,
        tx_hash       VARCHAR(128)  NOT NULL,
        outcome       VARCHAR(32)   NOT NULL,
        received_at   DATETIME(3)   NOT NULL,
        KEY idx_transfers_hash (tx_hash)
    ) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS platform_coupons (
        code           VARCHAR(64)   NOT NULL PRIMARY KEY,
        description    VARCHAR(255)  NOT NULL DEFAULT '',
        discount_type  VARCHAR(16)   NOT NULL,
        discount_value DECIMAL(20,2) NOT NULL
    ) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS hotel_coupons (
        code           VARCHAR(64)   NOT NULL,
        hotel_code     VARCHAR(32)   NOT NULL,
        description    VARCHAR(255)  NOT NULL DEFAULT '',
        discount_type  VARCHAR(16)   NOT NULL,
        discount_value DECIMAL(20,2) NOT NULL,
        PRIMARY KEY (code, hotel_code)
    ) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Migrate creates any missing tables.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate statement %d: %w", i, err)
		}
	}
	return nil
}
