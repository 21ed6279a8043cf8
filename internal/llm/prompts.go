package llm

import (
	"strings"
	"text/template"
	"time"
)

const detectSystemPrompt = "You are an expert in anomaly detection for sensor data. Respond with JSON only."

var detectPrompt = template.Must(template.New("detect").Funcs(funcs).Parse(`Analyze the recent sensor data against the historical data and identify anomalies.
An anomaly is a data point that deviates significantly from the range expected from the historical data.

For each recent data point, compute an anomaly score as the absolute difference from the historical
mean divided by the population standard deviation of the historical data. When the historical standard
deviation is zero, use the absolute difference in raw units instead. Flag the data point as anomalous
only if the score is strictly greater than the anomaly threshold.

Recent Sensor Data:
{{range .SensorData}}- Timestamp: {{ts .Timestamp}}, Value: {{.Value}}, Type: {{.SensorType}}, Location: {{.Location}}
{{end}}
Historical Data:
{{range .HistoricalData}}- Timestamp: {{ts .Timestamp}}, Value: {{.Value}}, Type: {{.SensorType}}, Location: {{.Location}}
{{end}}
Anomaly Threshold: {{.AnomalyThreshold}}

Output a JSON array with exactly one object per recent data point, in the same order, each with the fields
timestamp, value, sensorType, location, isAnomalous, anomalyScore and reason.`))

const summarySystemPrompt = "You are a city planner summarizing sensor data. Respond with JSON only."

var summaryPrompt = template.Must(template.New("summary").Funcs(funcs).Parse(`Summarize the sensor data for the following parameters:
Area: {{.Request.Area}}
Start Time: {{ts .Request.StartTime}}
End Time: {{ts .Request.EndTime}}
Sensor Type: {{.Request.SensorType}}

Readings:
{{range .Readings}}- {{ts .Timestamp}} {{.Location}}: {{.Value}}
{{end}}
Provide a concise summary of the trends and patterns observed in the sensor data as a JSON object
with a single "summary" field.`))

var funcs = template.FuncMap{
	"ts": func(t time.Time) string { return t.UTC().Format(time.RFC3339) },
}

func render(t *template.Template, data any) (string, error) {
	var b strings.Builder
	if err := t.Execute(&b, data); err != nil {
		return "", err
	}
	return b.String(), nil
}
