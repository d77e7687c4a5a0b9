package store

// Schema contains the DDL for the novel tables.
const Schema = `
CREATE TABLE IF NOT EXISTS novels (
    id              TEXT PRIMARY KEY,
    title           TEXT NOT NULL,
    category        TEXT NOT NULL DEFAULT '',
    cover_image_url TEXT NOT NULL DEFAULT '',
    image_url       TEXT,
    code            INTEGER NOT NULL DEFAULT 0,
    created_at      INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_novels_code ON novels(code);
CREATE INDEX IF NOT EXISTS idx_novels_created ON novels(created_at DESC);

-- Chapters belong to exactly one novel and die with it
CREATE TABLE IF NOT EXISTS chapters (
    id              TEXT PRIMARY KEY,
    novel_id        TEXT NOT NULL REFERENCES novels(id) ON DELETE CASCADE,
    chapter_number  INTEGER NOT NULL CHECK (chapter_number > 0),
    title           TEXT NOT NULL DEFAULT '',
    content         TEXT NOT NULL DEFAULT '',
    UNIQUE (novel_id, chapter_number)
);
CREATE INDEX IF NOT EXISTS idx_chapters_novel ON chapters(novel_id, chapter_number);
`
