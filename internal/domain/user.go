package domain

import "encoding/json"

// User es el perfil que devuelve el servicio remoto al autenticar.
type User struct {
	ID    string `json:"_id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// UnmarshalJSON acepta tanto "_id" como "id" como identificador.
func (u *User) UnmarshalJSON(data []byte) error {
	var raw struct {
		MongoID string `json:"_id"`
		ID      string `json:"id"`
		Name    string `json:"name"`
		Email   string `json:"email"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	u.ID = raw.MongoID
	if u.ID == "" {
		u.ID = raw.ID
	}
	u.Name = raw.Name
	u.Email = raw.Email
	return nil
}

// DisplayName devuelve el nombre a mostrar en la barra superior.
func (u User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return "Profile"
}

// Credentials son los datos de login.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Registration son los datos de alta de cuenta.
type Registration struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResult es la respuesta de login y registro. En registro ambos campos son opcionales.
type AuthResult struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

// Complete indica si la respuesta alcanza para abrir una sesion.
func (r AuthResult) Complete() bool {
	return r.Token != "" && r.User != nil
}
