package models

type DbType string

const (
	DbTypeSQLite DbType = "sqlite"
)

// DbTypes lists every supported database type.
var DbTypes = []DbType{
	DbTypeSQLite,
}

func (t DbType) Valid() bool {
	for _, known := range DbTypes {
		if t == known {
			return true
		}
	}
	return false
}

type ConnectionCreate struct {
	ConnectionUrl string `json:"ConnectionUrl" binding:"required"`
	DbType        DbType `json:"DbType" binding:"required"`
}

// Connection is a configured data source whose schema is reflected and queried by crons.
type Connection struct {
	ConnectionId    int64     `json:"ConnectionId"`
	DbType          DbType    `json:"DbType"`
	ConnectionUrl   string    `json:"ConnectionUrl"`
	CreatedAt       EpochTime `json:"CreatedAt"`
	DeletedAt       EpochTime `json:"DeletedAt"`
	Connected       bool      `json:"Connected"`
	LastConnectedAt EpochTime `json:"LastConnectedAt"`
	LastError       *string   `json:"LastError"`
}
