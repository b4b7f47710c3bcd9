package game

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"

	"partyrooms/internal/domain"
)

// Сколько каких ролей раздавать
type RoleCounts struct {
	Mafia     int `json:"mafia"`
	Doctor    int `json:"doctor"`
	Detective int `json:"detective"`
}

// RoleTable: число игроков -> раздача ролей
type RoleTable map[int]RoleCounts

func DefaultRoleTable() RoleTable {
	return RoleTable{
		4:  {Mafia: 1, Doctor: 1},
		5:  {Mafia: 1, Doctor: 1},
		6:  {Mafia: 1, Doctor: 1, Detective: 1},
		7:  {Mafia: 2, Doctor: 1, Detective: 1},
		8:  {Mafia: 2, Doctor: 1, Detective: 1},
		9:  {Mafia: 2, Doctor: 1, Detective: 1},
		10: {Mafia: 3, Doctor: 1, Detective: 1},
	}
}

// LoadRoleTable читает таблицу из JSON файла вида {"4": {"mafia": 1, ...}}
func LoadRoleTable(path string) (RoleTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var rt RoleTable
	if err := json.Unmarshal(data, &rt); err != nil {
		return nil, fmt.Errorf("parse role table: %w", err)
	}
	if err := rt.Validate(MafiaMinPlayers, MafiaMaxPlayers); err != nil {
		return nil, err
	}
	return rt, nil
}

// Validate проверяет, что для каждого размера стола мафия в меньшинстве
func (rt RoleTable) Validate(min, max int) error {
	for n := min; n <= max; n++ {
		c, ok := rt[n]
		if !ok {
			return fmt.Errorf("role table: no entry for %d players", n)
		}
		if c.Mafia < 1 || 2*c.Mafia >= n {
			return fmt.Errorf("role table: %d mafia is not a minority of %d players", c.Mafia, n)
		}
		if c.Doctor < 0 || c.Detective < 0 || c.Mafia+c.Doctor+c.Detective > n {
			return fmt.Errorf("role table: too many special roles for %d players", n)
		}
	}
	return nil
}

// Deal раздает роли на n игроков в случайном порядке
func (rt RoleTable) Deal(n int, rng *rand.Rand) ([]domain.Role, error) {
	c, ok := rt[n]
	if !ok {
		return nil, fmt.Errorf("%w: no roles for %d players", domain.ErrNotEnoughSeat, n)
	}
	roles := make([]domain.Role, 0, n)
	for i := 0; i < c.Mafia; i++ {
		roles = append(roles, domain.RoleMafia)
	}
	for i := 0; i < c.Doctor; i++ {
		roles = append(roles, domain.RoleDoctor)
	}
	for i := 0; i < c.Detective; i++ {
		roles = append(roles, domain.RoleDetective)
	}
	for len(roles) < n {
		roles = append(roles, domain.RoleCivilian)
	}
	rng.Shuffle(len(roles), func(i, j int) { roles[i], roles[j] = roles[j], roles[i] })
	return roles, nil
}
