package common

// RowMessage - строка записи, публикуемая в MQTT.
// Time - мс с начала эпохи, Fields не содержит пустых значений.
type RowMessage struct {
	Session string            `json:"session"`
	Time    int64             `json:"time"`
	Fields  map[string]string `json:"fields"`
}
