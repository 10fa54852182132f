package forecast

import (
	"context"

	"github.com/zhouzirui/carbon-tracker/webclient/internal/model/emission"
	"github.com/zhouzirui/carbon-tracker/webclient/internal/service/dispatch"
	"github.com/zhouzirui/carbon-tracker/webclient/internal/view"
)

const (
	ActionForecast dispatch.Action = "forecast"
	RegionResult                   = "forecast-result"
	AlertClass                     = "alert"
)

var resultTemplate = view.NewTemplate("forecast-result", `<p>Your forecast for tomorrow's carbon footprint is:</p>
<h3>🔮 {{numptr .Forecast}} kg CO2</h3>
<h4>Based on your last few entries:</h4>
<ul class="history-list">
{{- range .Historical}}
  <li>📅 {{.Date}}: {{num .Total}} kg CO2</li>
{{- end}}
</ul>`)

// Client fetches the next-day prediction.
type Client interface {
	Forecast(ctx context.Context) (emission.Forecast, error)
}

// Controller renders the forecast on request.
type Controller struct {
	client Client
}

func New(client Client) *Controller {
	return &Controller{client: client}
}

// Actions implements dispatch.Controller.
func (c *Controller) Actions() map[dispatch.Action]dispatch.Handler {
	return map[dispatch.Action]dispatch.Handler{ActionForecast: c.forecast}
}

func (c *Controller) forecast(ctx context.Context, v *view.View, _ dispatch.Input) error {
	result, err := c.client.Forecast(ctx)
	if err != nil {
		return err
	}

	if result.Insufficient() {
		v.Replace(RegionResult, view.Text(AlertClass, result.Message))
		return nil
	}

	block, err := view.Fragment(resultTemplate, "", result)
	if err != nil {
		return err
	}
	v.Replace(RegionResult, block)
	return nil
}
