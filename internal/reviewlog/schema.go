package reviewlog

const schema = `
-- One row per applied rating. The schedule itself lives in the phrase
-- store; this log is append-only history for statistics.
CREATE TABLE IF NOT EXISTS review_logs (
    id TEXT PRIMARY KEY,
    phrase_id TEXT NOT NULL,
    rating INTEGER NOT NULL,
    reviewed_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_review_logs_phrase_id ON review_logs(phrase_id);
`
