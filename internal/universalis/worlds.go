package universalis

import (
	"context"
	"sort"
)

type dataCenterInfo struct {
	Name   string `json:"name"`
	Region string `json:"region"`
	Worlds []int  `json:"worlds"`
}

type worldInfo struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// FetchDataCenters builds the data-center directory: a map from data-center
// name to its world names, plus a LocationAll bucket holding every world.
func (c *Client) FetchDataCenters(ctx context.Context) (map[string][]string, error) {
	var dcs []dataCenterInfo
	if err := c.GetJSON(ctx, c.baseURL+"/data-centers", &dcs); err != nil {
		return nil, err
	}
	var worlds []worldInfo
	if err := c.GetJSON(ctx, c.baseURL+"/worlds", &worlds); err != nil {
		return nil, err
	}

	worldNames := make(map[int]string, len(worlds))
	for _, w := range worlds {
		worldNames[w.ID] = w.Name
	}

	dir := make(map[string][]string, len(dcs)+1)
	var all []string
	for _, dc := range dcs {
		names := make([]string, 0, len(dc.Worlds))
		for _, id := range dc.Worlds {
			if name, ok := worldNames[id]; ok {
				names = append(names, name)
			}
		}
		sort.Strings(names)
		dir[dc.Name] = names
		all = append(all, names...)
	}
	sort.Strings(all)
	dir[LocationAll] = all
	return dir, nil
}
