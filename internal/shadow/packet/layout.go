package packet

import "github.com/nerrad567/re-shadow-harness/internal/shadow/codec"

// Header field names referenced by the registry.
const (
	FieldClientToken = "clientToken"
	FieldTimestamp   = "timestamp"
	FieldVersion     = "version"
	FieldLength      = "length"
	FieldType        = "type"
)

// HeaderFields is the 15-byte prefix of every shadow packet.
var HeaderFields = []codec.FieldDef{
	{Name: FieldClientToken, Type: "u32"},
	{Name: FieldTimestamp, Type: "u32"},
	{Name: FieldVersion, Type: "u32"},
	{Name: FieldLength, Type: "u16"},
	{Name: FieldType, Type: "u8"},
}

// ConnectionFields is the body of a connection-status packet.
var ConnectionFields = []codec.FieldDef{
	{Name: "connected", Type: "u8"},
}

// ReadWriteV1 holds the v1 settings the cloud may change (205 bytes).
var ReadWriteV1 = []codec.FieldDef{
	{Name: "systemConfiguration", Type: "u8"},
	{Name: "metricInterval", Type: "u16"},
	{Name: "powerConfig", Type: "u8"},
	{Name: "openWindowOffTimeMinutes", Type: "u8"},
	{Name: "setPointOff", Type: "i16"},
	{Name: "setPointEco", Type: "u8"},
	{Name: "manualSetPoint", Type: "u8"},
	{Name: "temporaryManualSetPoint", Type: "u8"},
	{Name: "boostDuration", Type: "u8"},
	{Name: "hysteresis", Type: "u8"},
	{Name: "temperatureSensorOffset", Type: "i8"},
	{Name: "ledStatus", Type: "u32"},
	{Name: "envId", Type: "u8[16]"},
	{Name: "ipAddress", Type: "u8[4]"},
	{Name: "temporaryManualEnd", Type: "u32"},
	{Name: "holidayStart", Type: "u32"},
	{Name: "holidayEnd", Type: "u32"},
	{Name: "timezone", Type: "i16"},
	{Name: "schedule", Type: "u8[154]"},
}

// ReadOnlyV1 holds the v1 values only the device reports (34 bytes).
var ReadOnlyV1 = []codec.FieldDef{
	{Name: "connected", Type: "u8"},
	{Name: "firmwareVersion", Type: "u8[2]"},
	{Name: "hardwareVersion", Type: "u8[2]"},
	{Name: "macAddress", Type: "u8[6]"},
	{Name: "systemStatus", Type: "u8"},
	{Name: "filPiloteStatus", Type: "u8"},
	{Name: "alarm", Type: "u8"},
	{Name: "heatingStatus", Type: "u8"},
	{Name: "signalQuality", Type: "u8"},
	{Name: "loadOnSeconds", Type: "u32"},
	{Name: "currentSetPointEnd", Type: "u32"},
	{Name: "currentSetPoint", Type: "i16"},
	{Name: "co2Value", Type: "u16"},
	{Name: "vocValue", Type: "u16"},
	{Name: "temperature", Type: "i16"},
	{Name: "loadTemperature", Type: "i16"},
}

// ReadWriteV2 extends ReadWriteV1 with the v2 settings (310 bytes).
var ReadWriteV2 = []codec.FieldDef{
	{Name: "ledEnable", Type: "u8"},
	{Name: "ledMode", Type: "u8"},
	{Name: "ledSchedule", Type: "u8[154]"},
	{Name: "ledColors", Type: "u8[40]"},
	{Name: "temporaryManualLedSetPoint", Type: "u32"},
	{Name: "temporaryManualLedSetPointEnd", Type: "u32"},
	{Name: "estimatedTemperature", Type: "i16"},
	{Name: "externalTemperature", Type: "i16"},
	{Name: "estimatedHumidity", Type: "u8"},
	{Name: "externalHumidity", Type: "u8"},
	{Name: "timesyncServer", Type: "u8[32]"},
	{Name: "forFutureUsage_rw", Type: "u8[68]"},
}

// ReadOnlyV2 extends ReadOnlyV1 with the v2 readings (142 bytes).
var ReadOnlyV2 = []codec.FieldDef{
	{Name: "currentLedSetPoint", Type: "u32"},
	{Name: "currentLedSetPointEnd", Type: "u32"},
	{Name: "cartridgePowerWatts", Type: "u16"},
	{Name: "cumulatedConsumptionWattHour", Type: "u32"},
	{Name: "cumulatedConsumptionWattHourSnapshotValue", Type: "u32"},
	{Name: "cumulatedConsumptionWattHourSnapshotTime", Type: "u32"},
	{Name: "modelName", Type: "u8[20]"},
	{Name: "forFutureUsage_r", Type: "u8[100]"},
}
