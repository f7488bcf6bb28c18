package sqlite

import "github.com/yangjiwoo8465/proj-hint-system/internal/storage"

// Ensure SQLite stores implement the storage interfaces.
var (
	_ storage.MasteryRepository    = (*MasteryStore)(nil)
	_ storage.SnapshotRepository   = (*SnapshotStore)(nil)
	_ storage.SubmissionRepository = (*SubmissionStore)(nil)
	_ storage.BadgeRepository      = (*BadgeStore)(nil)
	_ storage.HintRepository       = (*HintStore)(nil)
)
