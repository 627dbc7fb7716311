package penalties

type elasticNet struct {
	L1 float64 `json:"l1"`
	L2 float64 `json:"l2"`
}

// ElasticNet combines the L1 and L2 penalties, with their respective λ
func ElasticNet(λ1, λ2 float64) *elasticNet {
	return &elasticNet{λ1, λ2}
}

func (p *elasticNet) TypeString() string {
	return "elastic-net"
}

func (p *elasticNet) Penalize(w, grad float64) float64 {
	return L2(p.L2).Penalize(w, L1(p.L1).Penalize(w, grad))
}

func (p *elasticNet) Get() interface{} {
	return *p
}

func (p *elasticNet) Blank() interface{} {
	return p
}
