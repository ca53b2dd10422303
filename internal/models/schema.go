package models

// Column describes one column of one table in a connection's schema.
type Column struct {
	ConnectionId int64   `json:"ConnectionId"`
	TableName    string  `json:"TableName"`
	Name         string  `json:"Name"`
	Type         string  `json:"Type"`
	Notnull      bool    `json:"Notnull"`
	DfltValue    *string `json:"DfltValue"`
	PK           int     `json:"PK"` // ordinal inside the primary key, 0 if not part of it
}

type ForeignKey struct {
	ConnectionId int64  `json:"ConnectionId"`
	TableName    string `json:"TableName"`
	FromColumn   string `json:"FromColumn"`
	ToTable      string `json:"ToTable"`
	ToColumn     string `json:"ToColumn"`
}

type Table struct {
	Name        string
	Columns     []Column
	PrimaryKeys []string
	ForeignKeys []ForeignKey
}

type Relationship struct {
	FromTable string
	ToTable   string
	Type      string // "||--o{", "||--||", etc.
}

// Object is one row returned by a user supplied query, keyed by column name.
type Object map[string]interface{}
