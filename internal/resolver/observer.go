package resolver

// Observers fans notifications out to several observers in order.
type Observers []Observer

func (o Observers) CallFired(c Call) {
	for _, obs := range o {
		obs.CallFired(c)
	}
}

func (o Observers) ProfileChanged(name string) {
	for _, obs := range o {
		obs.ProfileChanged(name)
	}
}
