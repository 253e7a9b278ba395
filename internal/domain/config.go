package domain

// KeyPrefix prefixes every key logview writes to the database.
const KeyPrefix = "logview:"

// Plugin is the plugin name used in export file names.
const Plugin = "elasticsearch"

// HistoryKey is the fixed identifier the query history is stored under.
const HistoryKey = "kobs-elasticsearch-queryhistory"
