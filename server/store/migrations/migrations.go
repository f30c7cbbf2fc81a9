package migrations

// MigrationSet is an ordered set of migrations.
type MigrationSet []MigrationData

// MigrationData is a single migration. UpSQL and DownSQL are text/template templates
// executed against a DialectTemplate before they are applied.
type MigrationData struct {
	SequenceNumber int64
	Name           string
	UpSQL          string
	DownSQL        string
}

// ServerMigrations is the schema of the server database.
var ServerMigrations = MigrationSet{
	{
		SequenceNumber: 1,
		Name:           "create_scm_tokens",
		UpSQL: `CREATE TABLE IF NOT EXISTS scm_tokens
				(
					scm_token_id text NOT NULL PRIMARY KEY,
					scm_token_user_id text NOT NULL,
					scm_token_server_origin text NOT NULL,
					scm_token_provider text NOT NULL,
					scm_token_scm_user_name text NOT NULL,
					scm_token_encrypted {{ .Binary }} NOT NULL,
					scm_token_data_key_encrypted {{ .Binary }} NOT NULL,
					scm_token_created_at {{ .Timestamp }} NOT NULL,
					scm_token_updated_at {{ .Timestamp }} NOT NULL
				);
				CREATE UNIQUE INDEX IF NOT EXISTS scm_tokens_user_server_unique_index ON scm_tokens(
					scm_token_user_id,
					scm_token_server_origin);`,
		DownSQL: `DROP INDEX scm_tokens_user_server_unique_index;
				  DROP TABLE scm_tokens;`,
	},
	{
		SequenceNumber: 2,
		Name:           "create_scm_rejections",
		UpSQL: `CREATE TABLE IF NOT EXISTS scm_rejections
				(
					scm_rejection_user_id text NOT NULL,
					scm_rejection_server_origin text NOT NULL,
					scm_rejection_provider text NOT NULL,
					scm_rejection_created_at {{ .Timestamp }} NOT NULL,
					PRIMARY KEY (scm_rejection_user_id, scm_rejection_server_origin)
				);`,
		DownSQL: `DROP TABLE scm_rejections;`,
	},
}
