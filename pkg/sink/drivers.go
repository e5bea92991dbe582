package sink

// Drivers registered with database/sql under the names used by config.DriverType.
import (
	_ "github.com/jackc/pgx/v5/stdlib"  // registers "pgx"
	_ "github.com/lib/pq"               // registers "postgres"
	_ "github.com/microsoft/go-mssqldb" // registers "sqlserver"
	_ "modernc.org/sqlite"              // registers "sqlite"
)
