package coordinator

import (
	"github.com/ghalamif/EdgeHub/internal/domain"
	"github.com/ghalamif/EdgeHub/internal/ports"
)

// hvacCommandFor maps a temperature onto the HVAC command that brings it
// back inside [floor, ceiling]. Inside the band the HVAC is switched off.
func hvacCommandFor(v, floor, ceiling float64) (cmd int, value float64) {
	switch {
	case v > ceiling:
		return domain.CommandOn, ceiling
	case v < floor:
		return domain.CommandOn, floor
	default:
		return domain.CommandOff, 0
	}
}

func (c *Coordinator) applyControlRule(r *domain.SensorReading) {
	if !c.settings.EnableTempHandling || r.TypeID != domain.TempSensorType {
		return
	}
	cmd, value := hvacCommandFor(r.Value, c.settings.TempFloor, c.settings.TempCeiling)
	c.obs.LogDebug("hvac_rule_evaluated",
		ports.F("temperature", r.Value), ports.F("command", cmd), ports.F("value", value))
	c.DispatchActuatorCommand(domain.NewActuatorCommand(
		domain.HvacActuatorName, domain.HvacActuatorType, r.LocationID, cmd, value))
}
