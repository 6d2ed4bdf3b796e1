package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/robotalks/sutcheck/pkg/report"
	"github.com/robotalks/sutcheck/pkg/report/mqtt"
)

var (
	mqttURL = "mqtt://localhost:1883/sut/"
)

func init() {
	if val := os.Getenv("SUT_MQTT_URL"); val != "" {
		mqttURL = val
	}
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL.")
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	q, err := mqtt.NewQueueFromURL(mqttURL)
	if err != nil {
		log.Fatalln(err)
	}

	q.Sub("+"+mqtt.ReportSuffix, mqtt.Handler(func(topic string, payload []byte) {
		id, ok := mqtt.TesterFromTopic(topic)
		if !ok {
			return
		}
		r, err := report.Decode(payload)
		if err != nil {
			log.Printf("%s: bad report: %v", id, err)
			return
		}
		status := "PASSED"
		if !r.Passed {
			status = "FAILED"
		}
		var regs []string
		for _, name := range r.RegisterNames() {
			regs = append(regs, fmt.Sprintf("%s=%d", name, r.Registers[name]))
		}
		log.Printf("%s: [%s] %q %s", id, status, r.Messages, strings.Join(regs, " "))
		for _, f := range r.Failures {
			log.Printf("%s:   %s", id, f)
		}
	}))
	if token := q.Connect(); token.Wait() && token.Error() != nil {
		log.Fatalln(token.Error())
	}
	<-(chan struct{})(nil)
}
