package config

const (
	// AppName is the name of the application.
	AppName = "fennec"

	// EnvBotToken is the environment variable for the bot token.
	EnvBotToken = `BOT_TOKEN`

	// EnvApplicationId is the environment variable for the application ID.
	EnvApplicationId = `APPLICATION_ID`

	// EnvMongoUri is the environment variable for the MongoDB URI. Optional:
	// when unset, ticket data is kept in the local JSON file instead.
	EnvMongoUri = `MONGO_URI`

	// EnvDataFile is the environment variable for the ticket data file used
	// by the file-backed store.
	EnvDataFile = `TICKET_DATA_FILE`

	// EnvMonitoringPort is the environment variable for the monitoring port.
	EnvMonitoringPort = `MONITORING_PORT`
)

var (
	// BotToken is the token for the bot.
	BotToken string

	// ApplicationId is the ID of the application.
	ApplicationId string

	// MongoUri is the URI for the MongoDB database.
	MongoUri string

	// DataFile is the path of the ticket data file.
	DataFile string

	// MonitoringPort is the port for the monitoring server.
	MonitoringPort string
)
