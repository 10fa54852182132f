package calculator

import (
	"context"

	"github.com/zhouzirui/carbon-tracker/webclient/internal/model/emission"
	"github.com/zhouzirui/carbon-tracker/webclient/internal/service/dispatch"
	"github.com/zhouzirui/carbon-tracker/webclient/internal/view"
)

const (
	ActionCalculate dispatch.Action = "calculate"
	RegionResult                    = "emission-result"
)

var resultTemplate = view.NewTemplate("emission-result", `<h3>Your Emissions:</h3>
<p>🚗 Transport: {{num .TransportEm}} kg CO2</p>
<p>💡 Energy: {{num .EnergyEm}} kg CO2</p>
<p>🥗 Diet: {{num .DietEm}} kg CO2</p>
<p><strong>🌳 Total: {{num .Total}} kg CO2</strong></p>`)

// Client computes emissions for one day.
type Client interface {
	Calculate(ctx context.Context, entry emission.Entry) (emission.Result, error)
}

// Controller drives the daily calculator form.
type Controller struct {
	client Client
}

func New(client Client) *Controller {
	return &Controller{client: client}
}

// Actions implements dispatch.Controller.
func (c *Controller) Actions() map[dispatch.Action]dispatch.Handler {
	return map[dispatch.Action]dispatch.Handler{ActionCalculate: c.calculate}
}

// formFields are echoed back so a re-rendered form keeps what was entered.
var formFields = []string{
	emission.FieldDate,
	emission.FieldDistance,
	emission.FieldMode,
	emission.FieldKWh,
	emission.FieldMeals,
	emission.FieldDiet,
}

func (c *Controller) calculate(ctx context.Context, v *view.View, in dispatch.Input) error {
	for _, name := range formFields {
		if value, ok := in[name]; ok {
			v.SetField(name, value)
		}
	}

	entry := emission.ParseEntry(in)
	result, err := c.client.Calculate(ctx, entry)
	if err != nil {
		return err
	}

	block, err := view.Fragment(resultTemplate, "", result)
	if err != nil {
		return err
	}
	v.Replace(RegionResult, block)
	return nil
}
