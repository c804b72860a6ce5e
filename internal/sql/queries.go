// Package sql embeds the warehouse migrations and hand-written queries.
package sql

import "embed"

// Migrations holds the schema migration files, applied in filename order.
//
//go:embed migrations
var Migrations embed.FS

//go:embed queries/register_member_file.sql
var RegisterMemberFile string

//go:embed queries/lookup_member_file.sql
var LookupMemberFile string

//go:embed queries/update_member_file_status.sql
var UpdateMemberFileStatus string

//go:embed queries/read_members.sql
var ReadMembers string

//go:embed queries/insert_run.sql
var InsertRun string

//go:embed queries/update_run_status.sql
var UpdateRunStatus string

//go:embed queries/allocate_group_id.sql
var AllocateGroupID string

//go:embed queries/insert_run_error.sql
var InsertRunError string
