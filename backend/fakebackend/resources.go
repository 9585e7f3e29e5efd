package fakebackend

import (
	"cmp"
	"net/http"
	"slices"
	"strconv"

	"github.com/jrsteele09/go-payment-console/entities"
)

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid id")
		return 0, false
	}
	return id, true
}

func sortedValues[E interface{ EntityID() int64 }](m map[int64]E) []E {
	out := make([]E, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	slices.SortFunc(out, func(a, b E) int { return cmp.Compare(a.EntityID(), b.EntityID()) })
	return out
}

func (b *Backend) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	u, found := b.users[id]
	if !found {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	writeData(w, entities.Profile{ID: u.ID, Name: u.Name, Email: u.Email})
}

func (b *Backend) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	var p entities.Profile
	if !decode(w, r, &p) {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	u, found := b.users[p.ID]
	if !found {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	u.Name, u.Email = p.Name, p.Email
	p.LastUpdated = b.now().UTC().Format("2006-01-02T15:04:05Z")
	writeData(w, p)
}

func (b *Backend) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var change entities.PasswordChange
	if !decode(w, r, &change) {
		return
	}
	if change.Password != change.MatchingPassword {
		writeError(w, http.StatusBadRequest, "Passwords must match")
		return
	}
	hash, err := HashPassword(change.Password)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	caller(r).PasswordHash = hash
	writeData(w, nil)
}

func (b *Backend) handleListClients(w http.ResponseWriter, _ *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	writeData(w, sortedValues(b.clients))
}

func (b *Backend) handleCreateClient(w http.ResponseWriter, r *http.Request) {
	var c entities.Client
	if !decode(w, r, &c) {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	c.ID = b.id()
	c.Password = ""
	b.clients[c.ID] = c
	writeData(w, c)
}

func (b *Backend) handleUpdateClient(w http.ResponseWriter, r *http.Request) {
	var c entities.Client
	if !decode(w, r, &c) {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.clients[c.ID]; !ok {
		writeError(w, http.StatusNotFound, "Client not found")
		return
	}
	c.Password = ""
	b.clients[c.ID] = c
	writeData(w, c)
}

func (b *Backend) handleDeleteClient(w http.ResponseWriter, r *http.Request) {
	deleteByID(b, w, r, b.clients, "Client not found")
}

// deleteByID removes id from m, answering 404 with notFound when it is absent.
func deleteByID[E any](b *Backend, w http.ResponseWriter, r *http.Request, m map[int64]E, notFound string) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := m[id]; !ok {
		writeError(w, http.StatusNotFound, notFound)
		return
	}
	delete(m, id)
	writeData(w, nil)
}

// visibleAccounts is every account for admins and the caller's own accounts for clients.
// Callers hold b.mu.
func (b *Backend) visibleAccounts(u *User) []entities.Account {
	var out []entities.Account
	for _, a := range sortedValues(b.accounts) {
		if u.HasRole(entities.RoleAdmin) || a.ClientID == u.ClientID {
			out = append(out, a)
		}
	}
	if out == nil {
		out = []entities.Account{}
	}
	return out
}

func (b *Backend) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	writeData(w, b.visibleAccounts(caller(r)))
}

func (b *Backend) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var a entities.Account
	if !decode(w, r, &a) {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	a.ID = b.id()
	if a.ClientID == 0 {
		a.ClientID = caller(r).ClientID
	}
	b.accounts[a.ID] = a
	writeData(w, a)
}

func (b *Backend) handleUpdateAccount(w http.ResponseWriter, r *http.Request) {
	var a entities.Account
	if !decode(w, r, &a) {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	existing, ok := b.accounts[a.ID]
	if !ok {
		writeError(w, http.StatusNotFound, "Account not found")
		return
	}
	if a.MaxMonthly > 0 && a.MaxDaily > a.MaxMonthly {
		writeError(w, http.StatusBadRequest, "Daily limit exceeds monthly limit")
		return
	}
	a.HasQRCode = existing.HasQRCode
	b.accounts[a.ID] = a
	writeData(w, a)
}

func (b *Backend) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	deleteByID(b, w, r, b.accounts, "Account not found")
}

func (b *Backend) handleListPackages(w http.ResponseWriter, _ *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	writeData(w, sortedValues(b.packages))
}

func (b *Backend) handleCreatePackage(w http.ResponseWriter, r *http.Request) {
	var p entities.Package
	if !decode(w, r, &p) {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.accounts[p.AccountID]; !ok {
		writeError(w, http.StatusBadRequest, "Unknown account")
		return
	}
	p.ID = b.id()
	b.packages[p.ID] = p
	writeData(w, p)
}

func (b *Backend) handleUpdatePackage(w http.ResponseWriter, r *http.Request) {
	var p entities.Package
	if !decode(w, r, &p) {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.packages[p.ID]; !ok {
		writeError(w, http.StatusNotFound, "Package not found")
		return
	}
	b.packages[p.ID] = p
	writeData(w, p)
}

func (b *Backend) handleDeletePackage(w http.ResponseWriter, r *http.Request) {
	deleteByID(b, w, r, b.packages, "Package not found")
}

func (b *Backend) handleListRoles(w http.ResponseWriter, _ *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	writeData(w, b.roles)
}
