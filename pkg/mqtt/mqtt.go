package mqtt

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/serebryakov7/obd-logger/common"
)

const (
	DefaultBroker   = "tcp://localhost:1883"
	DefaultClientID = "obd-logger"
	DefaultTopic    = "vehicle/obd/rows"

	publishTimeout = 2 * time.Second
)

// MQTTConfig содержит настройки для MQTT клиента
type MQTTConfig struct {
	Broker   string
	ClientID string
	Topic    string
}

// Publisher дублирует строки записи в MQTT. Ошибки публикации не прерывают запись.
type Publisher struct {
	config  MQTTConfig
	client  mqtt.Client
	session string
}

// NewPublisher создаёт MQTT клиент для сессии
func NewPublisher(config MQTTConfig, session string) *Publisher {
	if config.ClientID == "" {
		config.ClientID = DefaultClientID + "-" + session
	}
	if config.Topic == "" {
		config.Topic = DefaultTopic
	}
	return &Publisher{
		config:  config,
		session: session,
	}
}

// Connect устанавливает соединение с MQTT брокером
func (p *Publisher) Connect() error {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(p.config.Broker)
	opts.SetClientID(p.config.ClientID)
	opts.SetAutoReconnect(true)
	opts.SetOnConnectHandler(func(client mqtt.Client) {
		log.Println("Подключено к MQTT брокеру")
	})
	opts.SetConnectionLostHandler(func(client mqtt.Client, err error) {
		log.Printf("Соединение с MQTT брокером потеряно: %v", err)
	})

	p.client = mqtt.NewClient(opts)
	if token := p.client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}

	log.Printf("Строки записи публикуются в MQTT на топик %s", p.config.Topic)
	return nil
}

// Disconnect отключается от MQTT брокера
func (p *Publisher) Disconnect() {
	if p.client != nil && p.client.IsConnected() {
		p.client.Disconnect(250)
	}
}

// PublishRow публикует одну строку. header и fields идут в одном порядке.
func (p *Publisher) PublishRow(timeMS int64, header, fields []string) error {
	if p.client == nil || !p.client.IsConnected() {
		return fmt.Errorf("MQTT клиент не подключен, строка не отправлена")
	}

	msg := common.RowMessage{
		Session: p.session,
		Time:    timeMS,
		Fields:  make(map[string]string, len(fields)),
	}
	for i, name := range header {
		if i == 0 || i >= len(fields) || fields[i] == "" {
			continue // TIME уже в msg.Time
		}
		msg.Fields[name] = fields[i]
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("ошибка сериализации строки: %w", err)
	}

	token := p.client.Publish(p.config.Topic, 0, false, data)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("таймаут отправки в MQTT")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("ошибка отправки данных в MQTT: %w", err)
	}
	return nil
}
